package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkovalev/novelshelf/internal/auth"
	"github.com/dkovalev/novelshelf/internal/database/novels"
	"github.com/dkovalev/novelshelf/internal/database/readinglist"
	"github.com/dkovalev/novelshelf/internal/entities"
)

// ReadingListStore defines the reading-list operations the controller needs.
type ReadingListStore interface {
	Upsert(userID, novelID uint, status entities.ReadingStatus, rating *int, review string) (*entities.ReadingListEntry, error)
	Remove(userID, novelID uint) (bool, error)
	ListForUser(userID uint, statusFilter entities.ReadingStatus) ([]entities.ReadingListEntry, error)
}

// NovelGetter resolves a novel before it is added to a list.
type NovelGetter interface {
	GetByID(id uint) (*entities.Novel, error)
}

// ReadingListController serves the per-user reading-list pages and
// form endpoints. All routes require an authenticated caller.
type ReadingListController struct {
	store    ReadingListStore
	catalog  NovelGetter
	sessions *auth.SessionManager
}

func NewReadingListController(store ReadingListStore, catalog NovelGetter, sessions *auth.SessionManager) *ReadingListController {
	return &ReadingListController{
		store:    store,
		catalog:  catalog,
		sessions: sessions,
	}
}

// MyListPage renders the caller's reading list grouped by status.
// GET /mylist?status=...
func (rc *ReadingListController) MyListPage(c *gin.Context) {
	userID := GetUserID(c)
	statusFilter := entities.ReadingStatus(c.Query("status"))

	entries, err := rc.store.ListForUser(userID, statusFilter)
	if err != nil {
		log.Printf("Internal error (list for user %d): %v", userID, err)
		c.String(http.StatusInternalServerError, "Error loading reading list")
		return
	}

	c.HTML(http.StatusOK, "mylist", gin.H{
		"Title":         "My Reading List",
		"Grouped":       readinglist.GroupByStatus(entries),
		"Statuses":      entities.AllReadingStatuses,
		"CurrentFilter": string(statusFilter),
		"CSRFToken":     auth.GetCSRFToken(c),
		"Flash":         rc.sessions.PopFlash(c.Request),
		"Auth":          GetAuthTemplateData(c),
	})
}

// AddToList upserts the caller's entry for a novel and redirects back
// to the novel's detail page.
// POST /add_to_list/:id
func (rc *ReadingListController) AddToList(c *gin.Context) {
	userID := GetUserID(c)
	novelID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	novel, err := rc.catalog.GetByID(novelID)
	if err != nil {
		if errors.Is(err, novels.ErrNovelNotFound) {
			c.String(http.StatusNotFound, "Novel not found")
			return
		}
		log.Printf("Internal error (load novel %d): %v", novelID, err)
		c.String(http.StatusInternalServerError, "Error loading novel")
		return
	}

	status := entities.ReadingStatus(c.PostForm("status"))
	if !status.IsValid() {
		// Parse-or-default, like the rating: an unknown label falls
		// back to the entry default rather than erroring.
		status = ""
	}
	rating := parseOptionalRating(c.PostForm("rating"))
	review := c.PostForm("review")

	if _, err := rc.store.Upsert(userID, novelID, status, rating, review); err != nil {
		log.Printf("Internal error (upsert entry user=%d novel=%d): %v", userID, novelID, err)
		c.String(http.StatusInternalServerError, "Error updating reading list")
		return
	}

	rc.sessions.PutFlash(c.Request, fmt.Sprintf("Added %q to your reading list!", novel.Title))
	c.Redirect(http.StatusFound, fmt.Sprintf("/novel/%d", novelID))
}

// RemoveFromList deletes the caller's entry for a novel and redirects
// to the reading list. Removing an absent entry is a silent no-op.
// POST /remove_from_list/:id
func (rc *ReadingListController) RemoveFromList(c *gin.Context) {
	userID := GetUserID(c)
	novelID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	removed, err := rc.store.Remove(userID, novelID)
	if err != nil {
		log.Printf("Internal error (remove entry user=%d novel=%d): %v", userID, novelID, err)
		c.String(http.StatusInternalServerError, "Error updating reading list")
		return
	}

	if removed {
		rc.sessions.PutFlash(c.Request, "Removed from your reading list")
	}
	c.Redirect(http.StatusFound, "/mylist")
}
