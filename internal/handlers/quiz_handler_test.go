package handlers

import (
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"transquiz/internal/security"
	"transquiz/internal/service"
)

var csrfTokenPattern = regexp.MustCompile(`name="csrf_token" value="([0-9a-f]+)"`)

const (
	schoolPrompt    = "I go to school."
	schoolReference = "나는 학교에 간다."
)

func newTestRouter(t *testing.T, quizSize, rateLimit int) http.Handler {
	t.Helper()

	templates, err := LoadTemplates("../templates")
	if err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}
	csrf, err := security.NewCSRFGenerator("test-secret")
	if err != nil {
		t.Fatalf("NewCSRFGenerator() error = %v", err)
	}

	sampler := service.NewSampler(rand.New(rand.NewPCG(1, 2)))
	store := service.NewSessionStore(func() *service.QuizSession {
		return service.NewQuizSession(sampler, quizSize)
	}, time.Hour)

	quizHandler := NewQuizHandler(store, csrf, templates, quizSize)
	middleware := NewMiddleware(csrf, security.NewRateLimiter(rateLimit, time.Minute), time.Hour)
	return NewRouter(quizHandler, middleware, "../../static")
}

// testBrowser keeps the session cookie between requests
type testBrowser struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
	token  string
}

func (b *testBrowser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	recorder := httptest.NewRecorder()
	b.router.ServeHTTP(recorder, req)

	for _, c := range recorder.Result().Cookies() {
		if c.Name != security.QuizSessionCookieName {
			continue
		}
		if c.MaxAge < 0 {
			b.cookie = nil
		} else {
			b.cookie = c
		}
	}
	if m := csrfTokenPattern.FindStringSubmatch(recorder.Body.String()); m != nil {
		b.token = m[1]
	}
	return recorder
}

func (b *testBrowser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *testBrowser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *testBrowser) postWithToken(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	form.Set(CSRFFormField, b.token)
	return b.post(path, form)
}

func repeatLines(line string, n int) string {
	return strings.TrimSuffix(strings.Repeat(line+"\n", n), "\n")
}

func expectRedirect(t *testing.T, recorder *httptest.ResponseRecorder, location string) {
	t.Helper()
	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d (body %q)", recorder.Code, recorder.Body.String())
	}
	if got := recorder.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %s, got %s", location, got)
	}
}

func TestQuizFlow(t *testing.T) {
	b := &testBrowser{t: t, router: newTestRouter(t, 10, 100)}

	home := b.get("/")
	if home.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", home.Code)
	}
	if b.cookie == nil || b.token == "" {
		t.Fatal("GET / should set a session cookie and render a CSRF token")
	}

	start := b.postWithToken("/quiz/start", url.Values{
		"prompts":    {repeatLines(schoolPrompt, 10)},
		"references": {repeatLines(schoolReference, 10)},
	})
	expectRedirect(t, start, "/quiz")

	// An in-progress quiz takes the user back to the test page
	expectRedirect(t, b.get("/"), "/quiz")

	test := b.get("/quiz")
	if test.Code != http.StatusOK {
		t.Fatalf("GET /quiz status = %d", test.Code)
	}
	if got := strings.Count(test.Body.String(), `name="answer-`); got != 10 {
		t.Fatalf("test page has %d answer fields, want 10", got)
	}

	answers := url.Values{}
	for i := 0; i < 10; i++ {
		answers.Set(answerField(i), "  "+schoolReference+"  ")
	}
	expectRedirect(t, b.postWithToken("/quiz/submit", answers), "/quiz/results")

	results := b.get("/quiz/results")
	if results.Code != http.StatusOK {
		t.Fatalf("GET /quiz/results status = %d", results.Code)
	}
	body := results.Body.String()
	if !strings.Contains(body, `id="total-percentage" class="score-high">100%`) {
		t.Errorf("results page should show 100%% overall, got:\n%s", body)
	}
	if !strings.Contains(body, `<span class="match">학교에</span>`) {
		t.Error("results page should mark matched words")
	}
	if strings.Contains(body, `class="mismatch"`) {
		t.Error("a perfect answer should have no mismatched words")
	}

	expectRedirect(t, b.get("/"), "/quiz/results")

	reset := b.postWithToken("/quiz/reset", nil)
	expectRedirect(t, reset, "/")
	if b.cookie != nil {
		t.Error("reset should clear the session cookie")
	}
	if body := b.get("/healthz").Body.String(); !strings.HasPrefix(body, "ok sessions=0") {
		t.Errorf("reset should drop the stored session, got %q", body)
	}

	if again := b.get("/"); again.Code != http.StatusOK {
		t.Fatalf("GET / after reset status = %d", again.Code)
	}
	expectRedirect(t, b.get("/quiz/results"), "/")
}

func TestResultsHighlightMismatchedWords(t *testing.T) {
	b := &testBrowser{t: t, router: newTestRouter(t, 1, 100)}
	b.get("/")

	expectRedirect(t, b.postWithToken("/quiz/start", url.Values{
		"prompts":    {schoolPrompt},
		"references": {schoolReference},
	}), "/quiz")
	b.get("/quiz")
	expectRedirect(t, b.postWithToken("/quiz/submit", url.Values{
		answerField(0): {"나는 집에 간다"},
	}), "/quiz/results")

	body := b.get("/quiz/results").Body.String()
	for _, want := range []string{
		`class="score-mid">67%`,
		`<span class="mismatch">집에</span>`,
		`<span class="match">간다</span>`,
		schoolReference,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("results page missing %q", want)
		}
	}
}

func TestStartQuizRejectsSmallPool(t *testing.T) {
	b := &testBrowser{t: t, router: newTestRouter(t, 10, 100)}
	b.get("/")

	recorder := b.postWithToken("/quiz/start", url.Values{
		"prompts":    {repeatLines(schoolPrompt, 3)},
		"references": {repeatLines(schoolReference, 3)},
	})

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, `role="alert"`) {
		t.Error("input page should show the validation message")
	}
	if !strings.Contains(body, schoolReference) {
		t.Error("input page should keep the entered text")
	}

	// The session never left idle
	expectRedirect(t, b.get("/quiz"), "/")
}

func TestStartQuizRejectsMismatchedLists(t *testing.T) {
	b := &testBrowser{t: t, router: newTestRouter(t, 2, 100)}
	b.get("/")

	recorder := b.postWithToken("/quiz/start", url.Values{
		"prompts":    {repeatLines(schoolPrompt, 3)},
		"references": {repeatLines(schoolReference, 2)},
	})

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", recorder.Code)
	}
}

func TestPromptsAreEscaped(t *testing.T) {
	b := &testBrowser{t: t, router: newTestRouter(t, 1, 100)}
	b.get("/")

	b.postWithToken("/quiz/start", url.Values{
		"prompts":    {"<b>bold</b>"},
		"references": {"굵게"},
	})
	body := b.get("/quiz").Body.String()

	if strings.Contains(body, "<b>bold</b>") {
		t.Error("prompt HTML should be escaped")
	}
	if !strings.Contains(body, "&lt;b&gt;bold&lt;/b&gt;") {
		t.Error("escaped prompt missing from the test page")
	}
}

func TestPostWithoutCSRFTokenIsForbidden(t *testing.T) {
	b := &testBrowser{t: t, router: newTestRouter(t, 1, 100)}
	b.get("/")

	recorder := b.post("/quiz/start", url.Values{
		"prompts":    {schoolPrompt},
		"references": {schoolReference},
	})

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", recorder.Code)
	}
	expectRedirect(t, b.get("/quiz"), "/")
}

func TestCSRFTokenFromOtherSessionIsForbidden(t *testing.T) {
	router := newTestRouter(t, 1, 100)
	alice := &testBrowser{t: t, router: router}
	bob := &testBrowser{t: t, router: router}
	alice.get("/")
	bob.get("/")

	bob.token = alice.token
	recorder := bob.postWithToken("/quiz/reset", nil)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", recorder.Code)
	}
}

func TestPostsAreRateLimited(t *testing.T) {
	b := &testBrowser{t: t, router: newTestRouter(t, 1, 2)}
	b.get("/")

	for i := 0; i < 2; i++ {
		if code := b.postWithToken("/quiz/reset", nil).Code; code != http.StatusSeeOther {
			t.Fatalf("request %d status = %d, want 303", i+1, code)
		}
	}
	if code := b.postWithToken("/quiz/reset", nil).Code; code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", code)
	}
}

func TestSubmitWithoutQuizRedirectsHome(t *testing.T) {
	b := &testBrowser{t: t, router: newTestRouter(t, 1, 100)}
	b.get("/")

	expectRedirect(t, b.postWithToken("/quiz/submit", url.Values{answerField(0): {"x"}}), "/")
}

func TestInvalidSessionCookieIsReplaced(t *testing.T) {
	b := &testBrowser{t: t, router: newTestRouter(t, 1, 100)}
	b.cookie = &http.Cookie{Name: security.QuizSessionCookieName, Value: "forged"}

	b.get("/")

	if b.cookie.Value == "forged" || !security.ValidSessionID(b.cookie.Value) {
		t.Fatalf("expected a fresh session ID, got %q", b.cookie.Value)
	}
}

func TestHealth(t *testing.T) {
	b := &testBrowser{t: t, router: newTestRouter(t, 1, 100)}

	recorder := b.get("/healthz")

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if !strings.HasPrefix(recorder.Body.String(), "ok") {
		t.Errorf("unexpected body %q", recorder.Body.String())
	}
}

func TestMetricsCountQuizzes(t *testing.T) {
	b := &testBrowser{t: t, router: newTestRouter(t, 1, 100)}
	b.get("/")
	b.postWithToken("/quiz/start", url.Values{
		"prompts":    {schoolPrompt},
		"references": {schoolReference},
	})
	b.get("/quiz")
	b.postWithToken("/quiz/submit", url.Values{answerField(0): {schoolReference}})

	recorder := b.get("/metrics")

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	for _, want := range []string{
		`quiz_starts_total{status="success"}`,
		"quiz_submissions_total",
		"quiz_overall_score_percent_bucket",
		"quiz_sentence_score_percent_count",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestPageViewsDoNotStoreSessions(t *testing.T) {
	router := newTestRouter(t, 1, 1)

	for i := 0; i < 50; i++ {
		for _, path := range []string{"/", "/quiz", "/quiz/results"} {
			// A fresh browser every time: no cookie is sent
			b := &testBrowser{t: t, router: router}
			b.get(path)
		}
	}

	b := &testBrowser{t: t, router: router}
	if body := b.get("/healthz").Body.String(); !strings.HasPrefix(body, "ok sessions=0") {
		t.Fatalf("cookieless page views should not be stored, got %q", body)
	}

	b.get("/")
	b.postWithToken("/quiz/start", url.Values{
		"prompts":    {schoolPrompt},
		"references": {schoolReference},
	})
	if body := b.get("/healthz").Body.String(); !strings.HasPrefix(body, "ok sessions=1") {
		t.Errorf("starting a quiz should store one session, got %q", body)
	}
}
