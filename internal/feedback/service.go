package feedback

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/match"
)

// DefaultWindow is how long after the final whistle feedback is accepted.
const DefaultWindow = 72 * time.Hour

// Form is what a submitter is shown.
type Form struct {
	Questionnaire Questionnaire `json:"questionnaire"`
	Choices       Choices       `json:"choices"`
	Saved         bool          `json:"saved"`
	ClosesAt      *time.Time    `json:"closes_at,omitempty"`
	Open          bool          `json:"open"`
}

// Service loads and submits the viewer's feedback.
type Service struct {
	session Session
	client  api.Client
	window  time.Duration
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithWindow overrides DefaultWindow.
func WithWindow(d time.Duration) Option {
	return func(s *Service) { s.window = d }
}

// WithClock overrides the clock used for the window check.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(session Session, client api.Client, opts ...Option) *Service {
	s := &Service{session: session, client: client, window: DefaultWindow, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClosesAt is when feedback for snap stops being accepted, or nil while the
// match has not finished.
func ClosesAt(snap *match.Snapshot, window time.Duration) *time.Time {
	if snap == nil || snap.Match.FinishedAt == nil {
		return nil
	}
	t := snap.Match.FinishedAt.Add(window)
	return &t
}

func (s *Service) closesAt(snap *match.Snapshot) *time.Time {
	return ClosesAt(snap, s.window)
}

func (s *Service) check(snap *match.Snapshot) error {
	if snap.Match.Status != match.StatusFinished {
		return fmt.Errorf("%w: feedback opens after the match", api.ErrInvalid)
	}
	if closes := s.closesAt(snap); closes != nil && s.now().After(*closes) {
		return &api.Error{Status: http.StatusForbidden, Code: "feedback_closed", Kind: api.KindForbidden}
	}
	m := snap.MemberOf(snap.Me.TgID)
	if m == nil || !m.Eligible() {
		return fmt.Errorf("%w: only players give feedback", api.ErrForbidden)
	}
	return nil
}

func (s *Service) saved(ctx context.Context, matchID int64) (Choices, Role, bool, error) {
	record, err := s.client.GetFeedback(ctx, matchID)
	if err != nil {
		return Choices{}, "", false, err
	}
	choices, role, err := ChoicesFrom(record)
	if err != nil {
		return Choices{}, "", false, err
	}
	saved := len(record.AnswersJSON) > 0 && string(record.AnswersJSON) != "null"
	return choices, role, saved, nil
}

// Load samples the viewer's questionnaire and restores saved choices.
func (s *Service) Load(ctx context.Context) (Form, error) {
	snap := s.session.Snapshot()
	if snap == nil {
		return Form{}, fmt.Errorf("%w: match not loaded yet", api.ErrTransient)
	}
	choices, role, saved, err := s.saved(ctx, snap.Match.ID)
	if err != nil {
		return Form{}, err
	}
	return Form{
		Questionnaire: Sample(CompositionFrom(snap, role)),
		Choices:       choices,
		Saved:         saved,
		ClosesAt:      s.closesAt(snap),
		Open:          s.check(snap) == nil,
	}, nil
}

// Submit stores the viewer's answers. Submitting again replaces them.
func (s *Service) Submit(ctx context.Context, choices Choices) error {
	return s.session.Do(ctx, "feedback", func(ctx context.Context) error {
		snap := s.session.Snapshot()
		if snap == nil {
			return fmt.Errorf("%w: match not loaded yet", api.ErrTransient)
		}
		if err := s.check(snap); err != nil {
			return err
		}
		_, role, _, err := s.saved(ctx, snap.Match.ID)
		if err != nil {
			return err
		}
		answers, err := Compose(Sample(CompositionFrom(snap, role)), choices)
		if err != nil {
			return err
		}
		record, err := answers.Record()
		if err != nil {
			return err
		}
		log.Info("Submitting feedback", "match_id", snap.Match.ID, "tg_id", snap.Me.TgID)
		return s.client.SubmitFeedback(ctx, snap.Match.ID, record)
	})
}
