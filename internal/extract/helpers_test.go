package extract

import (
	"context"
	"fmt"
	"sync"

	"github.com/ppiankov/wayfind/internal/fetch"
	"github.com/ppiankov/wayfind/internal/model"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]*fetch.Page
	errs  map[string]error
	calls map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]*fetch.Page),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *fakeFetcher) add(url, text string, links ...fetch.Link) *fakeFetcher {
	f.pages[url] = &fetch.Page{URL: url, FinalURL: url, Text: text, Links: links, Backend: "fake"}
	return f
}

func (f *fakeFetcher) fail(url string, err error) *fakeFetcher {
	f.errs[url] = err
	return f
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetch.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if p, ok := f.pages[url]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("unexpected status: 404 Not Found")
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

var hikingIntent = model.SearchIntent{
	ActivityType:   "hiking",
	Location:       "Marin County",
	SearchQuery:    "hiking trails Marin County",
	SearchRadiusKM: 25,
	IndoorOutdoor:  model.ModeOutdoor,
}

const lakeLoopPage = `Lake Loop Trail
A scenic loop around Lagunitas Lake through redwood forest.
Length 3.9 mi · Elevation gain 301 ft · Est. 1 hr 25 min
Loop trail. Rated 4.6 by 1,204 hikers.`

const topTrailsPage = `Top 10 Trails in Marin County
1. Eagle Peak Loop - 6.2 mi, steep climbs to views of the bay.
2. Lake Loop Trail - 3.9 mi, easy walk around the lake.
3. Coastal Bluff Trail - 4.5 mi, ocean views.
4. Redwood Creek Path - 2.1 mi, shaded and flat.`

const (
	individualJSON = `{"page_type":"individual_activity","has_multiple_activities":false,"activity_count":1,"confidence":0.92}`
	listJSON       = `{"page_type":"activity_list","has_multiple_activities":true,"activity_count":10,"confidence":0.9,"sub_urls":[],"best_match_url":null}`
	mixedJSON      = `{"page_type":"mixed_content","has_multiple_activities":false,"activity_count":1,"confidence":0.5}`

	lakeLoopJSON = `{
		"name": "Lake Loop Trail",
		"location": "Lagunitas Lake, Marin County",
		"description": "A scenic loop around Lagunitas Lake through redwood forest.",
		"difficulty": "easy",
		"duration": "1-2 hours",
		"equipment": ["hiking shoes", "water"],
		"weather_suitability": "dry weather",
		"indoor_outdoor": "outdoor",
		"metrics": {
			"distance": "3.9 mi",
			"elevation_gain": "301 ft",
			"estimated_time": "1 hr 25 min",
			"average_rating": "4.6",
			"surface_type": null,
			"starting_point": null,
			"route_type": "loop"
		},
		"relevance": 0.9,
		"extraction_confidence": "high"
	}`

	candidatesJSON = `{"candidates":[
		{"name":"Coastal Bluff Trail","description":"4.5 mi, ocean views","relevance":0.6,"has_details":true},
		{"name":"Eagle Peak Loop","description":"6.2 mi, steep climbs","relevance":0.85,"has_details":true},
		{"name":"Lake Loop Trail","description":"3.9 mi around the lake","relevance":0.85,"has_details":true}
	]}`

	eaglePeakJSON = `{
		"name": "Eagle Peak Loop",
		"location": "Marin County",
		"description": "Steep climbs to views of the bay.",
		"difficulty": "hard",
		"duration": null,
		"equipment": "hiking boots",
		"weather_suitability": null,
		"indoor_outdoor": "outdoor",
		"metrics": {"distance": "6.2 mi", "elevation_gain": null, "estimated_time": null},
		"relevance": 0.85,
		"extraction_confidence": "medium"
	}`
)
