// Package gymlist filters, pages and caches the gym congestion board.
package gymlist

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wdv96wdv/Doclimb/internal/models"
)

const (
	// AnyStatus disables the status filter.
	AnyStatus = -1

	MemberPageSize = 5
	AdminPageSize  = 10
)

type Filter struct {
	Query  string `json:"query"`
	Status int    `json:"status"`
}

// ParseStatus reads a status filter value: "all" (or empty) or a status code.
func ParseStatus(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return AnyStatus, true
	}
	status, err := strconv.Atoi(raw)
	if err != nil || !models.ValidGymStatus(status) {
		return 0, false
	}
	return status, true
}

func (f Filter) Matches(gym models.Gym) bool {
	if f.Status != AnyStatus && gym.CurrentStatus != f.Status {
		return false
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(gym.Name), query) ||
		strings.Contains(strings.ToLower(gym.Location), query)
}

// Apply returns the gyms matching f, in input order.
func Apply(gyms []models.Gym, f Filter) []models.Gym {
	out := make([]models.Gym, 0, len(gyms))
	for _, gym := range gyms {
		if f.Matches(gym) {
			out = append(out, gym)
		}
	}
	return out
}

type Page struct {
	Gyms       []models.Gym `json:"gyms"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	Total      int          `json:"total"`
	TotalPages int          `json:"total_pages"`
}

// Paginate slices gyms into pages of size, clamping page into range.
func Paginate(gyms []models.Gym, page, size int) Page {
	if size < 1 {
		size = MemberPageSize
	}
	total := len(gyms)
	totalPages := (total + size - 1) / size
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	end := min(start+size, total)
	items := make([]models.Gym, 0, max(end-start, 0))
	if start < total {
		items = append(items, gyms[start:end]...)
	}

	return Page{
		Gyms:       items,
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Browser is one viewer's position on the board. Changing the filter moves
// the viewer back to the first page.
type Browser struct {
	mu       sync.Mutex
	filter   Filter
	page     int
	pageSize int
}

func NewBrowser(pageSize int) *Browser {
	return &Browser{
		filter:   Filter{Status: AnyStatus},
		page:     1,
		pageSize: pageSize,
	}
}

func (b *Browser) SetQuery(query string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter.Query = query
	b.page = 1
}

func (b *Browser) SetStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter.Status = status
	b.page = 1
}

func (b *Browser) SetFilter(f Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = f
	b.page = 1
}

func (b *Browser) SetPage(page int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.page = page
}

func (b *Browser) Filter() Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter
}

func (b *Browser) Page() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page
}

// View renders gyms through the browser's filter and page. The stored page
// is clamped to what exists.
func (b *Browser) View(gyms []models.Gym) Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	page := Paginate(Apply(gyms, b.filter), b.page, b.pageSize)
	b.page = page.Page
	return page
}

// Catalog is the server's name-ordered copy of every gym.
type Catalog struct {
	mu   sync.RWMutex
	gyms []models.Gym
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

func (c *Catalog) Replace(gyms []models.Gym) {
	sorted := append([]models.Gym(nil), gyms...)
	sortByName(sorted)

	c.mu.Lock()
	c.gyms = sorted
	c.mu.Unlock()
}

// Apply patches the row with the same id, or adds it. Last write wins.
func (c *Catalog) Apply(gym models.Gym) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.gyms {
		if c.gyms[i].ID == gym.ID {
			renamed := c.gyms[i].Name != gym.Name
			c.gyms[i] = gym
			if renamed {
				sortByName(c.gyms)
			}
			return
		}
	}
	c.gyms = append(c.gyms, gym)
	sortByName(c.gyms)
}

func (c *Catalog) Snapshot() []models.Gym {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Gym(nil), c.gyms...)
}

func (c *Catalog) Get(id uuid.UUID) (models.Gym, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, gym := range c.gyms {
		if gym.ID == id {
			return gym, true
		}
	}
	return models.Gym{}, false
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.gyms)
}

func sortByName(gyms []models.Gym) {
	sort.SliceStable(gyms, func(i, j int) bool {
		return gyms[i].Name < gyms[j].Name
	})
}
