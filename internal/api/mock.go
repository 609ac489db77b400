package api

import (
	"context"
	"sync"

	"github.com/mauv0809/pitchside/internal/match"
)

// Call is one recorded invocation on MockClient.
type Call struct {
	Method string
	Args   []any
}

// MockClient is a mock implementation of the Client interface for testing.
// It is safe for concurrent use. Unset funcs succeed with zero values.
type MockClient struct {
	mu sync.Mutex

	// Spies for method calls
	GetMatchFunc          func(ctx context.Context, matchID int64) (*match.Snapshot, error)
	ListMatchesFunc       func(ctx context.Context) ([]match.Match, error)
	CreateMatchFunc       func(ctx context.Context, params CreateMatchParams) (int64, error)
	JoinFunc              func(ctx context.Context, matchID int64) error
	SpectateFunc          func(ctx context.Context, matchID int64) error
	LeaveFunc             func(ctx context.Context, matchID int64) error
	UpdatePermissionsFunc func(ctx context.Context, matchID, tgID int64, canEdit bool) error
	RepeatFunc            func(ctx context.Context, matchID int64) (int64, error)
	GenerateTeamsFunc     func(ctx context.Context, matchID int64) ([]match.TeamVariant, error)
	SelectTeamsFunc       func(ctx context.Context, matchID int64, params SelectTeamsParams) error
	CustomTeamsFunc       func(ctx context.Context, matchID int64, params CustomTeamsParams) (string, error)
	RevertTeamsFunc       func(ctx context.Context, matchID int64) error
	StartFunc             func(ctx context.Context, matchID int64) error
	FinishFunc            func(ctx context.Context, matchID int64, isButtGame bool) error
	NewSegmentFunc        func(ctx context.Context, matchID int64, isButtGame bool) (NewSegmentResult, error)
	DeleteSegmentFunc     func(ctx context.Context, matchID, segmentID int64) error
	GoalFunc              func(ctx context.Context, matchID int64, params GoalParams) (int64, error)
	OwnGoalFunc           func(ctx context.Context, matchID int64, team match.Team) (int64, error)
	PatchEventFunc        func(ctx context.Context, matchID, eventID int64, patch EventPatch) error
	DeleteEventFunc       func(ctx context.Context, matchID, eventID int64) error
	PayerRequestFunc      func(ctx context.Context, matchID int64) error
	PayerOfferFunc        func(ctx context.Context, matchID, tgID int64) error
	PayerRespondFunc      func(ctx context.Context, matchID int64, accepted bool) error
	PayerSelectFunc       func(ctx context.Context, matchID, tgID int64) error
	PayerClearFunc        func(ctx context.Context, matchID int64) error
	PayerDetailsFunc      func(ctx context.Context, matchID int64, details PayerDetails) error
	MarkPaidFunc          func(ctx context.Context, matchID int64) error
	ConfirmPaymentFunc    func(ctx context.Context, matchID, tgID int64, approved bool) error
	SubmitFeedbackFunc    func(ctx context.Context, matchID int64, record FeedbackRecord) error
	GetFeedbackFunc       func(ctx context.Context, matchID int64) (FeedbackRecord, error)
	AdminPatchSegmentFunc func(ctx context.Context, matchID, segmentID int64, patch SegmentPatch) error

	// Call records
	Calls []Call
}

// NewMockClient creates a new mock instance.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ Client = (*MockClient)(nil)

// Reset clears all call records.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// CallsTo returns the recorded calls of method.
func (m *MockClient) CallsTo(method string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Methods returns the names of all recorded calls in order.
func (m *MockClient) Methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		out = append(out, c.Method)
	}
	return out
}

func (m *MockClient) record(method string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, Call{Method: method, Args: args})
}

func (m *MockClient) GetMatch(ctx context.Context, matchID int64) (*match.Snapshot, error) {
	m.record("GetMatch", matchID)
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(ctx, matchID)
	}
	return &match.Snapshot{Match: match.Match{ID: matchID}}, nil
}

func (m *MockClient) ListMatches(ctx context.Context) ([]match.Match, error) {
	m.record("ListMatches")
	if m.ListMatchesFunc != nil {
		return m.ListMatchesFunc(ctx)
	}
	return nil, nil
}

func (m *MockClient) CreateMatch(ctx context.Context, params CreateMatchParams) (int64, error) {
	m.record("CreateMatch", params)
	if m.CreateMatchFunc != nil {
		return m.CreateMatchFunc(ctx, params)
	}
	return 0, nil
}

func (m *MockClient) Join(ctx context.Context, matchID int64) error {
	m.record("Join", matchID)
	if m.JoinFunc != nil {
		return m.JoinFunc(ctx, matchID)
	}
	return nil
}

func (m *MockClient) Spectate(ctx context.Context, matchID int64) error {
	m.record("Spectate", matchID)
	if m.SpectateFunc != nil {
		return m.SpectateFunc(ctx, matchID)
	}
	return nil
}

func (m *MockClient) Leave(ctx context.Context, matchID int64) error {
	m.record("Leave", matchID)
	if m.LeaveFunc != nil {
		return m.LeaveFunc(ctx, matchID)
	}
	return nil
}

func (m *MockClient) UpdatePermissions(ctx context.Context, matchID, tgID int64, canEdit bool) error {
	m.record("UpdatePermissions", matchID, tgID, canEdit)
	if m.UpdatePermissionsFunc != nil {
		return m.UpdatePermissionsFunc(ctx, matchID, tgID, canEdit)
	}
	return nil
}

func (m *MockClient) Repeat(ctx context.Context, matchID int64) (int64, error) {
	m.record("Repeat", matchID)
	if m.RepeatFunc != nil {
		return m.RepeatFunc(ctx, matchID)
	}
	return 0, nil
}

func (m *MockClient) GenerateTeams(ctx context.Context, matchID int64) ([]match.TeamVariant, error) {
	m.record("GenerateTeams", matchID)
	if m.GenerateTeamsFunc != nil {
		return m.GenerateTeamsFunc(ctx, matchID)
	}
	return nil, nil
}

func (m *MockClient) SelectTeams(ctx context.Context, matchID int64, params SelectTeamsParams) error {
	m.record("SelectTeams", matchID, params)
	if m.SelectTeamsFunc != nil {
		return m.SelectTeamsFunc(ctx, matchID, params)
	}
	return nil
}

func (m *MockClient) CustomTeams(ctx context.Context, matchID int64, params CustomTeamsParams) (string, error) {
	m.record("CustomTeams", matchID, params)
	if m.CustomTeamsFunc != nil {
		return m.CustomTeamsFunc(ctx, matchID, params)
	}
	return "", nil
}

func (m *MockClient) RevertTeams(ctx context.Context, matchID int64) error {
	m.record("RevertTeams", matchID)
	if m.RevertTeamsFunc != nil {
		return m.RevertTeamsFunc(ctx, matchID)
	}
	return nil
}

func (m *MockClient) Start(ctx context.Context, matchID int64) error {
	m.record("Start", matchID)
	if m.StartFunc != nil {
		return m.StartFunc(ctx, matchID)
	}
	return nil
}

func (m *MockClient) Finish(ctx context.Context, matchID int64, isButtGame bool) error {
	m.record("Finish", matchID, isButtGame)
	if m.FinishFunc != nil {
		return m.FinishFunc(ctx, matchID, isButtGame)
	}
	return nil
}

func (m *MockClient) NewSegment(ctx context.Context, matchID int64, isButtGame bool) (NewSegmentResult, error) {
	m.record("NewSegment", matchID, isButtGame)
	if m.NewSegmentFunc != nil {
		return m.NewSegmentFunc(ctx, matchID, isButtGame)
	}
	return NewSegmentResult{}, nil
}

func (m *MockClient) DeleteSegment(ctx context.Context, matchID, segmentID int64) error {
	m.record("DeleteSegment", matchID, segmentID)
	if m.DeleteSegmentFunc != nil {
		return m.DeleteSegmentFunc(ctx, matchID, segmentID)
	}
	return nil
}

func (m *MockClient) Goal(ctx context.Context, matchID int64, params GoalParams) (int64, error) {
	m.record("Goal", matchID, params)
	if m.GoalFunc != nil {
		return m.GoalFunc(ctx, matchID, params)
	}
	return 0, nil
}

func (m *MockClient) OwnGoal(ctx context.Context, matchID int64, team match.Team) (int64, error) {
	m.record("OwnGoal", matchID, team)
	if m.OwnGoalFunc != nil {
		return m.OwnGoalFunc(ctx, matchID, team)
	}
	return 0, nil
}

func (m *MockClient) PatchEvent(ctx context.Context, matchID, eventID int64, patch EventPatch) error {
	m.record("PatchEvent", matchID, eventID, patch)
	if m.PatchEventFunc != nil {
		return m.PatchEventFunc(ctx, matchID, eventID, patch)
	}
	return nil
}

func (m *MockClient) DeleteEvent(ctx context.Context, matchID, eventID int64) error {
	m.record("DeleteEvent", matchID, eventID)
	if m.DeleteEventFunc != nil {
		return m.DeleteEventFunc(ctx, matchID, eventID)
	}
	return nil
}

func (m *MockClient) PayerRequest(ctx context.Context, matchID int64) error {
	m.record("PayerRequest", matchID)
	if m.PayerRequestFunc != nil {
		return m.PayerRequestFunc(ctx, matchID)
	}
	return nil
}

func (m *MockClient) PayerOffer(ctx context.Context, matchID, tgID int64) error {
	m.record("PayerOffer", matchID, tgID)
	if m.PayerOfferFunc != nil {
		return m.PayerOfferFunc(ctx, matchID, tgID)
	}
	return nil
}

func (m *MockClient) PayerRespond(ctx context.Context, matchID int64, accepted bool) error {
	m.record("PayerRespond", matchID, accepted)
	if m.PayerRespondFunc != nil {
		return m.PayerRespondFunc(ctx, matchID, accepted)
	}
	return nil
}

func (m *MockClient) PayerSelect(ctx context.Context, matchID, tgID int64) error {
	m.record("PayerSelect", matchID, tgID)
	if m.PayerSelectFunc != nil {
		return m.PayerSelectFunc(ctx, matchID, tgID)
	}
	return nil
}

func (m *MockClient) PayerClear(ctx context.Context, matchID int64) error {
	m.record("PayerClear", matchID)
	if m.PayerClearFunc != nil {
		return m.PayerClearFunc(ctx, matchID)
	}
	return nil
}

func (m *MockClient) PayerDetails(ctx context.Context, matchID int64, details PayerDetails) error {
	m.record("PayerDetails", matchID, details)
	if m.PayerDetailsFunc != nil {
		return m.PayerDetailsFunc(ctx, matchID, details)
	}
	return nil
}

func (m *MockClient) MarkPaid(ctx context.Context, matchID int64) error {
	m.record("MarkPaid", matchID)
	if m.MarkPaidFunc != nil {
		return m.MarkPaidFunc(ctx, matchID)
	}
	return nil
}

func (m *MockClient) ConfirmPayment(ctx context.Context, matchID, tgID int64, approved bool) error {
	m.record("ConfirmPayment", matchID, tgID, approved)
	if m.ConfirmPaymentFunc != nil {
		return m.ConfirmPaymentFunc(ctx, matchID, tgID, approved)
	}
	return nil
}

func (m *MockClient) SubmitFeedback(ctx context.Context, matchID int64, record FeedbackRecord) error {
	m.record("SubmitFeedback", matchID, record)
	if m.SubmitFeedbackFunc != nil {
		return m.SubmitFeedbackFunc(ctx, matchID, record)
	}
	return nil
}

func (m *MockClient) GetFeedback(ctx context.Context, matchID int64) (FeedbackRecord, error) {
	m.record("GetFeedback", matchID)
	if m.GetFeedbackFunc != nil {
		return m.GetFeedbackFunc(ctx, matchID)
	}
	return FeedbackRecord{}, nil
}

func (m *MockClient) AdminPatchSegment(ctx context.Context, matchID, segmentID int64, patch SegmentPatch) error {
	m.record("AdminPatchSegment", matchID, segmentID, patch)
	if m.AdminPatchSegmentFunc != nil {
		return m.AdminPatchSegmentFunc(ctx, matchID, segmentID, patch)
	}
	return nil
}
