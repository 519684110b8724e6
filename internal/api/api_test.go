package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stopwatch-io/stopwatch-ce/internal/auth"
	"github.com/stopwatch-io/stopwatch-ce/internal/billing"
	"github.com/stopwatch-io/stopwatch-ce/internal/clock"
	"github.com/stopwatch-io/stopwatch-ce/internal/email"
	"github.com/stopwatch-io/stopwatch-ce/internal/invoice"
	"github.com/stopwatch-io/stopwatch-ce/internal/metrics"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
	"github.com/stopwatch-io/stopwatch-ce/internal/timer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memProjects struct {
	mu       sync.Mutex
	projects map[int64]*models.Project
	nextID   int64
}

func newMemProjects() *memProjects {
	return &memProjects{projects: make(map[int64]*models.Project), nextID: 1}
}

func (m *memProjects) GetByID(_ context.Context, id int64) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, models.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProjects) Create(_ context.Context, userID int64) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Project{ID: m.nextID, UserID: userID, StatusID: models.StatusActive}
	m.nextID++
	m.projects[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *memProjects) UpdateDetails(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return models.ErrProjectNotFound
	}
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *memProjects) ListActiveByUser(_ context.Context, userID int64) ([]models.ProjectSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ProjectSummary
	for _, p := range m.projects {
		if p.UserID == userID && !p.IsClosed() {
			out = append(out, models.ProjectSummary{ID: p.ID, Description: p.Description})
		}
	}
	return out, nil
}

func (m *memProjects) ListStatuses(context.Context) ([]models.ProjectStatus, error) {
	return []models.ProjectStatus{
		{ID: models.StatusClosed, Description: "Closed"},
		{ID: models.StatusActive, Description: "Active"},
	}, nil
}

type memUsers struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[int64]*models.User), nextID: 1}
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByName(_ context.Context, name string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Name == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextID
	u.ValidID = models.ValidID
	m.nextID++
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

type allowAll struct{}

func (allowAll) URLsForUser(context.Context, int64) ([]string, error) {
	return []string{"/my_projects"}, nil
}

type testServer struct {
	router   *gin.Engine
	projects *memProjects
	catalog  *repository.MemoryCatalogRepository
	records  *repository.MemoryTimeRecordRepository
	mailer   *email.Recorder
	cookie   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clk := clock.Fixed(time.UTC)
	sessions := repository.NewMemorySessionRepository()
	records := repository.NewMemoryTimeRecordRepository()
	phases := repository.NewMemoryPhaseRepository(records)
	catalog := repository.NewMemoryCatalogRepository()
	store := repository.NewMemoryTimerStore(sessions, records)
	projects := newMemProjects()
	users := newMemUsers()
	mailer := &email.Recorder{}

	seq := timer.NewSequencer(phases)
	timerSvc := timer.NewService(sessions, records, store, seq, clk)
	authSvc := auth.NewService(users, sessions, allowAll{}, store, clk)
	agg := billing.NewAggregator(phases, repository.NewMemoryIntervalReader(records, catalog), clk)
	asm := invoice.NewAssembler(agg, projects)
	m := metrics.New(prometheus.NewRegistry())

	h := NewHandlers(Deps{
		Auth:      authSvc,
		Timer:     timerSvc,
		Sequencer: seq,
		Bills:     agg,
		Invoices:  asm,
		Mailer:    mailer,
		Projects:  projects,
		Catalog:   catalog,
		Phases:    phases,
		Records:   records,
		Sessions:  sessions,
		Users:     users,
		Archiver:  nil,
		Metrics:   m,
		Clock:     clk,
		Cookie:    CookieSettings{Name: "stopwatch_session", MaxAge: 3600},
	})
	router := NewRouter(h, sessions, m, "")

	user := &models.User{Name: "luke", Email: "luke@example.com"}
	require.NoError(t, user.SetPassword("hunter2"))
	require.NoError(t, users.Create(context.Background(), user))

	return &testServer{
		router:   router,
		projects: projects,
		catalog:  catalog,
		records:  records,
		mailer:   mailer,
	}
}

func (s *testServer) do(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/login", url.Values{
		"name": {"luke"}, "password": {"hunter2"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	s.cookie = cookies[0].Name + "=" + cookies[0].Value
}

func (s *testServer) seedCatalogItem(t *testing.T, projectID int64) int64 {
	t.Helper()
	ctx := context.Background()
	rate := &models.ItemRate{Description: "Standard", FeePerHour: 60}
	require.NoError(t, s.catalog.UpsertRate(ctx, rate))
	typ := &models.ItemType{Description: "Consulting"}
	require.NoError(t, s.catalog.UpsertType(ctx, typ))
	item := &models.ActionItem{Name: "Site visit", ProjectID: projectID, TypeID: typ.ID, RateID: rate.ID}
	require.NoError(t, s.catalog.UpsertActionItem(ctx, item))
	return item.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/login", url.Values{
		"name": {"luke"}, "password": {"wrong"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/my_projects", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTimerToggleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	w := s.do(t, http.MethodPost, "/projects", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	itemID := s.seedCatalogItem(t, 1)
	timerPath := fmt.Sprintf("/action_items/%d/timer", itemID)

	// Timing without a selected project is a conflict.
	w = s.do(t, http.MethodPost, timerPath, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/projects/1/expand", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, timerPath, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "timing", decode(t, w)["state"])
	assert.Equal(t, 1, s.records.OpenCount())

	// Second toggle stops.
	w = s.do(t, http.MethodPost, timerPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", decode(t, w)["state"])
	assert.Equal(t, 0, s.records.OpenCount())
}

func TestAddPhaseFollowsViewingProject(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	// Without an expanded project there is nothing to number against.
	w := s.do(t, http.MethodPost, "/phases", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/projects", nil).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/projects", nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/projects/1/expand", nil).Code)

	w = s.do(t, http.MethodPost, "/phases", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(1), body["project_id"])
	assert.Equal(t, float64(1), body["number"])

	// The phase lands on whichever project the session views now.
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/projects/2/expand", nil).Code)
	w = s.do(t, http.MethodPost, "/phases", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body = decode(t, w)
	assert.Equal(t, float64(2), body["project_id"])
	assert.Equal(t, float64(1), body["number"])
}

func TestSwitchWhileTimingConflicts(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/projects", nil).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/projects", nil).Code)
	itemID := s.seedCatalogItem(t, 1)
	timerPath := fmt.Sprintf("/action_items/%d/timer", itemID)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/projects/1/expand", nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, timerPath, nil).Code)

	w := s.do(t, http.MethodPost, "/projects/2/expand", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateDetailsTrackingNumber(t *testing.T) {
	s := newTestServer(t)
	s.login(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/projects", nil).Code)

	t.Run("Numeric", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/projects/1/details", url.Values{
			"tt_number": {"90210"}, "office_serial": {"OF-1"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		p, err := s.projects.GetByID(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, p.TTNumber)
		assert.Equal(t, int64(90210), *p.TTNumber)
	})

	t.Run("BlankClears", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/projects/1/details", url.Values{
			"tt_number": {" "},
		})
		require.Equal(t, http.StatusOK, w.Code)
		p, err := s.projects.GetByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Nil(t, p.TTNumber)
	})

	t.Run("NonNumericRejected", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/projects/1/details", url.Values{
			"tt_number": {"abc"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInvoiceSendOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.login(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/projects", nil).Code)
	itemID := s.seedCatalogItem(t, 1)
	timerPath := fmt.Sprintf("/action_items/%d/timer", itemID)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/projects/1/expand", nil).Code)

	// Record one interval through the real toggle path.
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, timerPath, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, timerPath, nil).Code)

	w := s.do(t, http.MethodGet, "/phases/1/invoice", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Site visit")

	w = s.do(t, http.MethodPost, "/phases/1/invoice/send", url.Values{
		"to": {"accounting@example.com"}, "cc": {"boss@example.com"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, s.mailer.Sent, 1)
	sent := s.mailer.Sent[0]
	assert.Equal(t, "accounting@example.com", sent.To)
	assert.Equal(t, "boss@example.com", sent.CC)
	assert.Equal(t, "invoice.html", sent.AttachmentName)
	assert.Contains(t, string(sent.Attachment), "Site visit")

	t.Run("MissingRecipient", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/phases/1/invoice/send", url.Values{"to": {" "}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UnknownPhase", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/phases/999/invoice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdminRateEditor(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	w := s.do(t, http.MethodPost, "/admin/rates", url.Values{
		"description": {""}, "fee_per_hour": {"75"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Default Title")

	w = s.do(t, http.MethodPost, "/admin/rates", url.Values{
		"id": {"1"}, "description": {"Senior"}, "fee_per_hour": {"-5"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminAddUserEmailsCredentials(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	w := s.do(t, http.MethodPost, "/admin/users", url.Values{
		"name": {"mara"}, "email": {"mara@example.com"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, s.mailer.Sent, 1)
	assert.Equal(t, "mara@example.com", s.mailer.Sent[0].To)

	body := s.mailer.Sent[0].Body
	idx := strings.Index(body, "Password: ")
	require.NotEqual(t, -1, idx)
	password := strings.TrimSpace(body[idx+len("Password: "):])
	require.NotEmpty(t, password)
	// The response never carries the password.
	assert.NotContains(t, w.Body.String(), password)
}

func TestArchiveUnknownKindRejected(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	w := s.do(t, http.MethodPost, "/admin/archive/widget/1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
