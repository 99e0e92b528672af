package query

import (
	"context"
	"sync"
	"time"

	"github.com/stanstork/condo-notify/internal/models"
)

// Fetcher issues one page of q.
type Fetcher func(ctx context.Context, q Query, page int) ([]models.Notification, error)

// Request identifies one page fetch. Generation ties it to the search that
// produced it so a superseded response can be recognised and dropped.
type Request struct {
	Generation uint64
	Page       int
	Query      Query
}

// Feed is the paginated result list behind a screen: a search resets it to page
// one, "load more" appends the next page, and responses from an older search
// are discarded.
type Feed struct {
	mu         sync.Mutex
	caps       Capabilities
	now        func() time.Time
	generation uint64
	query      Query
	started    bool
	page       int
	items      []models.Notification
	hasMore    bool
}

func NewFeed(caps Capabilities) *Feed {
	return &Feed{caps: caps, now: time.Now}
}

// Search validates filter and, only when it is usable, starts a new
// generation at page one. A rejected filter leaves the loaded items untouched.
func (f *Feed) Search(filter Filter) (Request, error) {
	q, err := Build(filter, f.caps, f.now())
	if err != nil {
		return Request{}, err
	}
	return f.start(q), nil
}

// ShowAll clears every filter and starts an unfiltered listing.
func (f *Feed) ShowAll() Request {
	return f.start(AllQuery(f.caps.Scope))
}

func (f *Feed) start(q Query) Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	f.query = q
	f.started = true
	f.page = 0
	f.hasMore = false
	return Request{Generation: f.generation, Page: 1, Query: q}
}

// Next returns the "load more" request. It is false when the last page was short
// or nothing has been loaded yet.
func (f *Feed) Next() (Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started || !f.hasMore {
		return Request{}, false
	}
	return Request{Generation: f.generation, Page: f.page + 1, Query: f.query}, true
}

// Apply installs a page. It returns false and changes nothing when req belongs
// to a superseded search or does not follow the last applied page.
func (f *Feed) Apply(req Request, items []models.Notification) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Generation != f.generation || req.Page != f.page+1 {
		return false
	}
	if req.Page == 1 {
		f.items = append([]models.Notification(nil), items...)
	} else {
		f.items = append(f.items, items...)
	}
	f.page = req.Page
	f.hasMore = HasMore(len(items))
	return true
}

// fail records a failed fetch. A failed first page degrades to an empty list;
// a failed "load more" keeps what is already shown so it can be retried.
func (f *Feed) fail(req Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Generation != f.generation || req.Page != 1 || f.page != 0 {
		return
	}
	f.items = nil
	f.hasMore = false
}

// Load fetches req and applies the result. It reports whether the result was
// applied.
func (f *Feed) Load(ctx context.Context, fetch Fetcher, req Request) (bool, error) {
	items, err := fetch(ctx, req.Query, req.Page)
	if err != nil {
		f.fail(req)
		return false, err
	}
	return f.Apply(req, items), nil
}

func (f *Feed) Items() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Notification(nil), f.items...)
}

func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

func (f *Feed) Page() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

func (f *Feed) Query() Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query
}
