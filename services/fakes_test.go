package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hireflow/backend/models"
	"github.com/hireflow/backend/normalize"
)

// fakeStore is an in-memory stand-in for the repository, satisfying the
// narrow store interfaces the pipeline services depend on.
type fakeStore struct {
	mu sync.Mutex

	roles      map[string]*models.Role
	candidates map[string]*models.Candidate
	candOrder  []string
	tokens     []*models.OneTimeToken
	interviews map[string]*models.Interview
	reports    map[string]*models.Report

	createCandidateErr error
	upsertInterviewErr error
	upsertReportErr    error
	createTokenErr     error

	contactUpdates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		roles:      make(map[string]*models.Role),
		candidates: make(map[string]*models.Candidate),
		interviews: make(map[string]*models.Interview),
		reports:    make(map[string]*models.Report),
	}
}

func pairKey(candidateID, roleID string) string {
	return candidateID + "|" + roleID
}

func (f *fakeStore) addRole(role *models.Role) {
	f.roles[role.ID] = role
}

func (f *fakeStore) addCandidate(c *models.Candidate) {
	f.candidates[c.ID] = c
	f.candOrder = append(f.candOrder, c.ID)
}

func (f *fakeStore) GetRoleByID(ctx context.Context, id string) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles[id], nil
}

func (f *fakeStore) GetRoleByToken(ctx context.Context, token string) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, role := range f.roles {
		if role.SubmissionToken == token {
			return role, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetCandidateByID(ctx context.Context, id string) (*models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.candidates[id], nil
}

func (f *fakeStore) GetCandidateByRoleAndEmail(ctx context.Context, roleID, email string) (*models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = normalize.Email(email)
	for _, c := range f.candidates {
		if c.RoleID == roleID && c.Email == email {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetCandidateByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = normalize.Email(email)
	for i := len(f.candOrder) - 1; i >= 0; i-- {
		if c := f.candidates[f.candOrder[i]]; c.Email == email {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateCandidate(ctx context.Context, candidate *models.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createCandidateErr != nil {
		return f.createCandidateErr
	}
	candidate.CreatedAt = time.Now()
	f.candidates[candidate.ID] = candidate
	f.candOrder = append(f.candOrder, candidate.ID)
	return nil
}

func (f *fakeStore) MarkCandidateVerified(ctx context.Context, candidateID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[candidateID]
	if !ok {
		return false, errors.New("candidate missing")
	}
	if c.Verified {
		return false, nil
	}
	now := time.Now()
	c.Verified = true
	c.VerifiedAt = &now
	return true, nil
}

func (f *fakeStore) CreateOneTimeToken(ctx context.Context, token *models.OneTimeToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createTokenErr != nil {
		return f.createTokenErr
	}
	if token.ID == "" {
		token.ID = fmt.Sprintf("token-%d", len(f.tokens)+1)
	}
	token.CreatedAt = time.Now()
	f.tokens = append(f.tokens, token)
	return nil
}

func (f *fakeStore) GetLatestTokenByEmail(ctx context.Context, email string) (*models.OneTimeToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = normalize.Email(email)
	for i := len(f.tokens) - 1; i >= 0; i-- {
		if f.tokens[i].Email == email {
			return f.tokens[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ConsumeToken(ctx context.Context, tokenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.ID == tokenID {
			t.Consumed = true
			return nil
		}
	}
	return errors.New("token missing")
}

func (f *fakeStore) UpsertInterview(ctx context.Context, interview *models.Interview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertInterviewErr != nil {
		return f.upsertInterviewErr
	}
	key := pairKey(interview.CandidateID, interview.RoleID)
	if existing, ok := f.interviews[key]; ok {
		interview.ID = existing.ID
	} else if interview.ID == "" {
		interview.ID = fmt.Sprintf("interview-%d", len(f.interviews)+1)
	}
	f.interviews[key] = interview
	return nil
}

func (f *fakeStore) UpsertPendingInterview(ctx context.Context, interview *models.Interview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertInterviewErr != nil {
		return f.upsertInterviewErr
	}
	key := pairKey(interview.CandidateID, interview.RoleID)
	if existing, ok := f.interviews[key]; ok {
		// Mirrors the conditional conflict update: a row that already has a
		// recording is left untouched; otherwise only the session fields move.
		if existing.VideoURL != "" {
			return nil
		}
		updated := *existing
		updated.SessionID = interview.SessionID
		updated.SessionURL = interview.SessionURL
		f.interviews[key] = &updated
		interview.ID = existing.ID
		return nil
	}
	if interview.ID == "" {
		interview.ID = fmt.Sprintf("interview-%d", len(f.interviews)+1)
	}
	f.interviews[key] = interview
	return nil
}

func (f *fakeStore) GetInterviewByCandidateAndRole(ctx context.Context, candidateID, roleID string) (*models.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interviews[pairKey(candidateID, roleID)], nil
}

func (f *fakeStore) UpsertReport(ctx context.Context, report *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertReportErr != nil {
		return f.upsertReportErr
	}
	key := pairKey(report.CandidateID, report.RoleID)
	if existing, ok := f.reports[key]; ok {
		report.ID = existing.ID
		report.PDFKey = existing.PDFKey
		report.RenderedAt = existing.RenderedAt
	} else if report.ID == "" {
		report.ID = fmt.Sprintf("report-%d", len(f.reports)+1)
	}
	f.reports[key] = report
	return nil
}

func (f *fakeStore) GetReportByCandidateAndRole(ctx context.Context, candidateID, roleID string) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reports[pairKey(candidateID, roleID)]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) SetReportPDF(ctx context.Context, reportID, pdfKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reports {
		if r.ID == reportID {
			now := time.Now()
			r.PDFKey = pdfKey
			r.RenderedAt = &now
			return nil
		}
	}
	return errors.New("report missing")
}

func (f *fakeStore) ListCandidateBatch(ctx context.Context, offset, limit int) ([]models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= len(f.candOrder) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.candOrder) {
		end = len(f.candOrder)
	}
	var out []models.Candidate
	for _, id := range f.candOrder[offset:end] {
		out = append(out, *f.candidates[id])
	}
	return out, nil
}

func (f *fakeStore) UpdateCandidateContact(ctx context.Context, candidateID, firstName, lastName, email, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[candidateID]
	if !ok {
		return errors.New("candidate missing")
	}
	c.FirstName, c.LastName, c.Email, c.Phone = firstName, lastName, email, phone
	f.contactUpdates++
	return nil
}

// fakeAnalyzer returns canned scores, or fails on demand.
type fakeAnalyzer struct {
	resume     *ResumeAnalysis
	interview  *InterviewAnalysis
	resumeErr  error
	scriptErr  error
	resumeHits int
	scriptHits int
}

func (a *fakeAnalyzer) AnalyzeResume(ctx context.Context, resume []byte, mimeType, roleDescription string) (*ResumeAnalysis, error) {
	a.resumeHits++
	if a.resumeErr != nil {
		return nil, a.resumeErr
	}
	return a.resume, nil
}

func (a *fakeAnalyzer) AnalyzeTranscript(ctx context.Context, transcript string, rubric models.Rubric) (*InterviewAnalysis, error) {
	a.scriptHits++
	if a.scriptErr != nil {
		return nil, a.scriptErr
	}
	return a.interview, nil
}

// fakeStorage keeps objects in a map.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	signErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[bucket+"/"+key] = data
	return nil
}

func (s *fakeStorage) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("object missing")
	}
	return data, nil
}

func (s *fakeStorage) SignedURL(ctx context.Context, bucket, key string, ttlSeconds int) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return fmt.Sprintf("https://signed.example.com/%s/%s?ttl=%d", bucket, key, ttlSeconds), nil
}

// fakeNotifier records sent messages.
type fakeNotifier struct {
	mu       sync.Mutex
	sent     []string
	messages []string
	err      error
}

func (n *fakeNotifier) Send(ctx context.Context, destination, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, destination)
	n.messages = append(n.messages, message)
	return nil
}

// fakeVendor fabricates video sessions.
type fakeVendor struct {
	session  *VideoSession
	err      error
	calls    int
	onCreate func() // runs inside CreateSession, before it returns
}

func (v *fakeVendor) CreateSession(ctx context.Context, req VideoSessionRequest) (*VideoSession, error) {
	v.calls++
	if v.onCreate != nil {
		v.onCreate()
	}
	if v.err != nil {
		return nil, v.err
	}
	return v.session, nil
}

// fakePublisher records lifecycle events.
type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) Publish(candidateID, roleID, event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// fakeRenderer scripts poll responses in order.
type fakeRenderer struct {
	jobID     string
	submitErr error
	statuses  []RenderStatus
	pollErr   error
	polls     int
}

func (r *fakeRenderer) Submit(ctx context.Context, payload ReportPayload) (string, error) {
	if r.submitErr != nil {
		return "", r.submitErr
	}
	return r.jobID, nil
}

func (r *fakeRenderer) Poll(ctx context.Context, jobID string) (*RenderStatus, error) {
	if r.pollErr != nil {
		return nil, r.pollErr
	}
	idx := r.polls
	if idx >= len(r.statuses) {
		idx = len(r.statuses) - 1
	}
	r.polls++
	status := r.statuses[idx]
	return &status, nil
}

func floatPtr(v float64) *float64 { return &v }
