package http

import (
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovalev/novelshelf/internal/auth"
	"github.com/dkovalev/novelshelf/internal/config"
	"github.com/dkovalev/novelshelf/internal/database"
	"github.com/dkovalev/novelshelf/internal/database/novels"
	"github.com/dkovalev/novelshelf/internal/database/readinglist"
)

type testApp struct {
	router   *gin.Engine
	service  *auth.Service
	listRepo *readinglist.Repository
}

// setupTestApp wires the full router against a seeded database. CSRF
// stays off so form posts do not need a token round-trip; the token
// enforcement itself is covered by setupTestAppWithCSRF tests.
func setupTestApp(t *testing.T) (*testApp, func()) {
	t.Helper()
	return newTestApp(t, nil)
}

// setupTestAppWithCSRF wires the same router with token validation on.
func setupTestAppWithCSRF(t *testing.T) (*testApp, func()) {
	t.Helper()
	return newTestApp(t, []byte("0123456789abcdef0123456789abcdef"))
}

func newTestApp(t *testing.T, csrfSecret []byte) (*testApp, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_router_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewSilentDatabase(dbPath)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	authCfg := config.Auth{
		SessionLifetime: 24 * time.Hour,
		BcryptCost:      4,
	}

	svc := auth.NewService(db.DB, authCfg)

	sm, err := auth.NewSessionManager(sqlDB, authCfg)
	require.NoError(t, err)

	middleware := auth.NewMiddleware(svc, sm)
	authController := auth.NewController(svc, sm, authCfg)

	novelRepo := novels.NewRepository(db.DB)
	listRepo := readinglist.NewRepository(db.DB)

	router := NewRouter(RouterConfig{
		Database:       db,
		CatalogStore:   novelRepo,
		ListStore:      listRepo,
		EntryGetter:    listRepo,
		AuthService:    svc,
		AuthController: authController,
		AuthMiddleware: middleware,
		SessionManager: sm,
		CSRFSecret:     csrfSecret,
		TemplatesPath:  "../../templates",
		StaticPath:     "../../static",
		RecentLimit:    6,
		Version:        "test",
	})

	cleanup := func() {
		authController.Stop()
		db.Close()
		os.Remove(dbPath)
	}

	return &testApp{router: router, service: svc, listRepo: listRepo}, cleanup
}

func (app *testApp) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

// sessionCookie pulls the scs session cookie out of a response,
// falling back to the previous cookie when none was re-issued.
func sessionCookie(w *httptest.ResponseRecorder, previous *http.Cookie) *http.Cookie {
	resp := http.Response{Header: w.Header()}
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	return previous
}

// login registers a user directly and walks the login form, returning
// the authenticated session cookie.
func login(t *testing.T, app *testApp, email, password string) *http.Cookie {
	t.Helper()

	_, err := app.service.Register(email, password)
	require.NoError(t, err)

	w := app.postForm("/login", url.Values{
		"email":    {email},
		"password": {password},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	cookie := sessionCookie(w, nil)
	require.NotNil(t, cookie, "login did not set a session cookie")
	return cookie
}

func TestHomePage_ShowsRecentNovels(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	w := app.get("/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, title := range []string{
		"Solo Leveling",
		"The Beginning After The End",
		"Omniscient Reader",
		"Trash of the Count",
		"Martial Peak",
	} {
		assert.Contains(t, body, title)
	}
	assert.Contains(t, body, "Login")
}

func TestSearchPage_QueryFiltersResults(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	w := app.get("/search?q=Solo", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Solo Leveling")
	assert.NotContains(t, body, "Martial Peak")
}

func TestSearchPage_QueryAndTagComposeWithAnd(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	w := app.get("/search?q=Solo&tag=Martial+Arts", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	// Solo Leveling matches the query but not the tag.
	assert.NotContains(t, w.Body.String(), `<h3><a href="/novel/`)
}

func TestSearchPage_OffersFullTagVocabulary(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	// Even with a narrow query, the dropdown lists every catalog tag.
	w := app.get("/search?q=Solo", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Reincarnation")
	assert.Contains(t, body, "Martial Arts")
}

func TestNovelPage(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	t.Run("renders detail for seeded novel", func(t *testing.T) {
		w := app.get("/novel/1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Chugong")
	})

	t.Run("returns 400 for malformed id", func(t *testing.T) {
		w := app.get("/novel/abc", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 404 for unknown id", func(t *testing.T) {
		w := app.get("/novel/99999", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Novel not found")
	})
}

func TestHealthAndPing(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	w := app.get("/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	w = app.get("/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}

func TestMyList_RequiresAuthentication(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	w := app.get("/mylist", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?next=%2Fmylist", w.Header().Get("Location"))
}

func TestRegisterAndLoginFlow(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	w := app.postForm("/register", url.Values{
		"email":    {"reader@example.com"},
		"password": {"secret"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = app.postForm("/login", url.Values{
		"email":    {"reader@example.com"},
		"password": {"secret"},
	}, sessionCookie(w, nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	cookie := sessionCookie(w, nil)
	require.NotNil(t, cookie)

	w = app.get("/mylist", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "My Reading List")
	assert.Contains(t, w.Body.String(), "reader@example.com")
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	_, err := app.service.Register("reader@example.com", "secret")
	require.NoError(t, err)

	w := app.postForm("/login", url.Values{
		"email":    {"reader@example.com"},
		"password": {"wrong"},
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")
}

func TestReadingListFlow(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	cookie := login(t, app, "reader@example.com", "secret")

	// Add a novel with status and rating.
	w := app.postForm("/add_to_list/1", url.Values{
		"status": {"Reading"},
		"rating": {"5"},
		"review": {"Hooked from chapter one."},
	}, cookie)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/novel/1", w.Header().Get("Location"))
	cookie = sessionCookie(w, cookie)

	// The flash and the entry show up on the detail page.
	w = app.get("/novel/1", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "to your reading list!")
	cookie = sessionCookie(w, cookie)

	// The list page shows the entry under its status group.
	w = app.get("/mylist", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Solo Leveling")
	assert.Contains(t, body, "5/5 stars")
	assert.Contains(t, body, "Hooked from chapter one.")
	cookie = sessionCookie(w, cookie)

	// Remove it again.
	w = app.postForm("/remove_from_list/1", url.Values{}, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/mylist", w.Header().Get("Location"))
	cookie = sessionCookie(w, cookie)

	w = app.get("/mylist", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Removed from your reading list")
	assert.NotContains(t, w.Body.String(), "Solo Leveling")
}

func TestAddToList_UpsertOverwrites(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	cookie := login(t, app, "reader@example.com", "secret")

	w := app.postForm("/add_to_list/1", url.Values{
		"status": {"Want to Read"},
	}, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	cookie = sessionCookie(w, cookie)

	w = app.postForm("/add_to_list/1", url.Values{
		"status": {"Completed"},
		"rating": {"4"},
	}, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	cookie = sessionCookie(w, cookie)

	w = app.get("/mylist?status=Completed", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Solo Leveling")

	w = app.get("/mylist?status=Want+to+Read", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Solo Leveling")
}

func TestAddToList_UnknownNovelReturns404(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	cookie := login(t, app, "reader@example.com", "secret")

	w := app.postForm("/add_to_list/99999", url.Values{
		"status": {"Reading"},
	}, cookie)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddToList_InvalidStatusFallsBackToDefault(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	cookie := login(t, app, "reader@example.com", "secret")

	w := app.postForm("/add_to_list/1", url.Values{
		"status": {"Binge Later"},
	}, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	cookie = sessionCookie(w, cookie)

	w = app.get("/mylist?status=Want+to+Read", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Solo Leveling")
}

func TestRemoveFromList_AbsentEntryRedirectsWithoutFlash(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	cookie := login(t, app, "reader@example.com", "secret")

	w := app.postForm("/remove_from_list/1", url.Values{}, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/mylist", w.Header().Get("Location"))
	cookie = sessionCookie(w, cookie)

	w = app.get("/mylist", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Removed from your reading list")
}

var csrfTokenPattern = regexp.MustCompile(`name="gorilla\.csrf\.Token" value="([^"]+)"`)

func extractCSRFToken(t *testing.T, body string) string {
	t.Helper()
	match := csrfTokenPattern.FindStringSubmatch(body)
	require.NotNil(t, match, "no CSRF token field in page")
	// html/template escapes the attribute value (e.g. "+" becomes
	// "&#43;"); a browser would unescape it before submitting.
	return html.UnescapeString(match[1])
}

// request serves one request with every cookie in the jar attached,
// then folds the response's Set-Cookie headers back into the jar.
func (app *testApp) request(method, path string, form url.Values, jar map[string]*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, cookie := range jar {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	resp := http.Response{Header: w.Header()}
	for _, cookie := range resp.Cookies() {
		jar[cookie.Name] = cookie
	}
	return w
}

func TestCSRFProtection(t *testing.T) {
	app, cleanup := setupTestAppWithCSRF(t)
	defer cleanup()

	user, err := app.service.Register("reader@example.com", "secret")
	require.NoError(t, err)

	jar := make(map[string]*http.Cookie)

	// The login page issues the CSRF cookie and a matching form token.
	w := app.request(http.MethodGet, "/login", nil, jar)
	require.Equal(t, http.StatusOK, w.Code)
	loginToken := extractCSRFToken(t, w.Body.String())

	w = app.request(http.MethodPost, "/login", url.Values{
		"email":              {"reader@example.com"},
		"password":           {"secret"},
		"gorilla.csrf.Token": {loginToken},
	}, jar)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	t.Run("post without token is rejected and not applied", func(t *testing.T) {
		w := app.request(http.MethodPost, "/add_to_list/1", url.Values{
			"status": {"Reading"},
			"review": {"forged"},
		}, jar)

		assert.Equal(t, http.StatusForbidden, w.Code)
		// The upsert must not have run.
		entry, err := app.listRepo.Get(user.ID, 1)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("post with token is applied", func(t *testing.T) {
		w := app.request(http.MethodGet, "/novel/1", nil, jar)
		require.Equal(t, http.StatusOK, w.Code)
		token := extractCSRFToken(t, w.Body.String())

		w = app.request(http.MethodPost, "/add_to_list/1", url.Values{
			"status":             {"Reading"},
			"gorilla.csrf.Token": {token},
		}, jar)
		require.Equal(t, http.StatusFound, w.Code, w.Body.String())

		entry, err := app.listRepo.Get(user.ID, 1)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "Reading", string(entry.Status))
	})
}

func TestCSRFProtection_RejectionRedirectsToReferer(t *testing.T) {
	app, cleanup := setupTestAppWithCSRF(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=a%40example.com&password=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "/login")

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/login?error=")
}

func TestLoginPage_RedirectsAuthenticatedUsers(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	cookie := login(t, app, "reader@example.com", "secret")

	w := app.get("/login", cookie)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}
