package views

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrProjectTitle = errors.New("a project needs a title")

type ProjectInfo struct {
	ID          string
	Title       string
	Type        string
	Description string
}

func (p ProjectInfo) matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Type), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// Catalog is the in-memory project list for this run. Nothing is saved.
type Catalog struct {
	mu       sync.RWMutex
	projects []ProjectInfo
}

func NewCatalog(seed ...ProjectInfo) *Catalog {
	return &Catalog{projects: slices.Clone(seed)}
}

// Search returns projects whose title, type or description contain q.
func (c *Catalog) Search(q string) []ProjectInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ProjectInfo, 0, len(c.projects))
	for _, p := range c.projects {
		if p.matches(q) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) Get(id string) (ProjectInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.projects {
		if p.ID == id {
			return p, true
		}
	}
	return ProjectInfo{}, false
}

// Similar lists the other projects that share id's type. Projects without
// a type have no matches.
func (c *Catalog) Similar(id string) []ProjectInfo {
	base, ok := c.Get(id)
	if !ok || base.Type == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []ProjectInfo
	for _, p := range c.projects {
		if p.ID != id && strings.EqualFold(p.Type, base.Type) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) Add(p ProjectInfo) (ProjectInfo, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return ProjectInfo{}, ErrProjectTitle
	}
	p.Type = strings.TrimSpace(p.Type)
	p.Description = strings.TrimSpace(p.Description)
	p.ID = uuid.NewString()
	c.mu.Lock()
	c.projects = append(c.projects, p)
	c.mu.Unlock()
	return p, nil
}

func SampleProjects() []ProjectInfo {
	return []ProjectInfo{
		{ID: "word-of-the-day", Title: "Word of the Day", Type: "app", Description: "A daily vocabulary card: benevolent, well meaning and kindly."},
		{ID: "garden-share", Title: "Garden Share", Type: "community", Description: "Match neighbours with spare garden beds to people who want to grow food."},
		{ID: "study-buddy", Title: "Study Buddy", Type: "education", Description: "Pair students taking the same course for weekly review sessions."},
		{ID: "repair-cafe", Title: "Repair Café Map", Type: "map", Description: "Find volunteer repair events nearby and list what they can fix."},
	}
}
