package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkovalev/novelshelf/internal/auth"
	"github.com/dkovalev/novelshelf/internal/database/novels"
	"github.com/dkovalev/novelshelf/internal/entities"
)

// CatalogStore defines the catalog operations the controller needs.
type CatalogStore interface {
	Recent(limit int) ([]entities.Novel, error)
	Search(query, tagFilter string) ([]entities.Novel, error)
	GetByID(id uint) (*entities.Novel, error)
	AllTags() ([]string, error)
}

// EntryGetter fetches a single reading-list entry, used on the novel
// detail page to show the caller's own status/rating/review.
type EntryGetter interface {
	Get(userID, novelID uint) (*entities.ReadingListEntry, error)
}

// CatalogController serves the browse and search pages.
type CatalogController struct {
	store       CatalogStore
	entries     EntryGetter
	sessions    *auth.SessionManager
	recentLimit int
}

func NewCatalogController(store CatalogStore, entries EntryGetter, sessions *auth.SessionManager, recentLimit int) *CatalogController {
	return &CatalogController{
		store:       store,
		entries:     entries,
		sessions:    sessions,
		recentLimit: recentLimit,
	}
}

// HomePage renders the landing page with the most recent novels.
// GET /
func (cc *CatalogController) HomePage(c *gin.Context) {
	recent, err := cc.store.Recent(cc.recentLimit)
	if err != nil {
		log.Printf("Internal error (load recent novels): %v", err)
		c.String(http.StatusInternalServerError, "Error loading novels")
		return
	}

	c.HTML(http.StatusOK, "index", gin.H{
		"Title":  "Home",
		"Novels": recent,
		"Flash":  cc.sessions.PopFlash(c.Request),
		"Auth":   GetAuthTemplateData(c),
	})
}

// SearchPage filters the catalog by text query and tag.
// GET /search?q=...&tag=...
func (cc *CatalogController) SearchPage(c *gin.Context) {
	query := c.Query("q")
	tagFilter := c.Query("tag")

	results, err := cc.store.Search(query, tagFilter)
	if err != nil {
		log.Printf("Internal error (search novels): %v", err)
		c.String(http.StatusInternalServerError, "Error searching novels")
		return
	}

	// The tag dropdown always offers the full catalog vocabulary,
	// not just the tags of the filtered results.
	allTags, err := cc.store.AllTags()
	if err != nil {
		log.Printf("Internal error (load tags): %v", err)
		c.String(http.StatusInternalServerError, "Error loading tags")
		return
	}

	c.HTML(http.StatusOK, "search", gin.H{
		"Title":     "Search",
		"Novels":    results,
		"Query":     query,
		"TagFilter": tagFilter,
		"AllTags":   allTags,
		"Auth":      GetAuthTemplateData(c),
	})
}

// NovelPage renders a novel's detail page. Authenticated callers also
// see their own reading-list entry for the novel, if any.
// GET /novel/:id
func (cc *CatalogController) NovelPage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	novel, err := cc.store.GetByID(id)
	if err != nil {
		if errors.Is(err, novels.ErrNovelNotFound) {
			c.String(http.StatusNotFound, "Novel not found")
			return
		}
		log.Printf("Internal error (load novel %d): %v", id, err)
		c.String(http.StatusInternalServerError, "Error loading novel")
		return
	}

	var entry *entities.ReadingListEntry
	if userID := GetUserID(c); userID != 0 {
		entry, err = cc.entries.Get(userID, id)
		if err != nil {
			log.Printf("Internal error (load entry for novel %d): %v", id, err)
			c.String(http.StatusInternalServerError, "Error loading reading list entry")
			return
		}
	}

	c.HTML(http.StatusOK, "novel", gin.H{
		"Title":     novel.Title,
		"Novel":     novel,
		"Entry":     entry,
		"Statuses":  entities.AllReadingStatuses,
		"CSRFToken": auth.GetCSRFToken(c),
		"Flash":     cc.sessions.PopFlash(c.Request),
		"Auth":      GetAuthTemplateData(c),
	})
}
