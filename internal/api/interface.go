package api

import (
	"context"

	"github.com/mauv0809/pitchside/internal/match"
)

// Client is the match API. Every mutating call is fire-and-refetch: callers
// read the outcome from the next GetMatch.
type Client interface {
	GetMatch(ctx context.Context, matchID int64) (*match.Snapshot, error)
	ListMatches(ctx context.Context) ([]match.Match, error)
	CreateMatch(ctx context.Context, params CreateMatchParams) (int64, error)
	Join(ctx context.Context, matchID int64) error
	Spectate(ctx context.Context, matchID int64) error
	Leave(ctx context.Context, matchID int64) error
	UpdatePermissions(ctx context.Context, matchID, tgID int64, canEdit bool) error
	Repeat(ctx context.Context, matchID int64) (int64, error)

	GenerateTeams(ctx context.Context, matchID int64) ([]match.TeamVariant, error)
	SelectTeams(ctx context.Context, matchID int64, params SelectTeamsParams) error
	CustomTeams(ctx context.Context, matchID int64, params CustomTeamsParams) (string, error)
	RevertTeams(ctx context.Context, matchID int64) error

	Start(ctx context.Context, matchID int64) error
	Finish(ctx context.Context, matchID int64, isButtGame bool) error
	NewSegment(ctx context.Context, matchID int64, isButtGame bool) (NewSegmentResult, error)
	DeleteSegment(ctx context.Context, matchID, segmentID int64) error
	Goal(ctx context.Context, matchID int64, params GoalParams) (int64, error)
	OwnGoal(ctx context.Context, matchID int64, team match.Team) (int64, error)
	PatchEvent(ctx context.Context, matchID, eventID int64, patch EventPatch) error
	DeleteEvent(ctx context.Context, matchID, eventID int64) error

	PayerRequest(ctx context.Context, matchID int64) error
	PayerOffer(ctx context.Context, matchID, tgID int64) error
	PayerRespond(ctx context.Context, matchID int64, accepted bool) error
	PayerSelect(ctx context.Context, matchID, tgID int64) error
	PayerClear(ctx context.Context, matchID int64) error
	PayerDetails(ctx context.Context, matchID int64, details PayerDetails) error
	MarkPaid(ctx context.Context, matchID int64) error
	ConfirmPayment(ctx context.Context, matchID, tgID int64, approved bool) error

	SubmitFeedback(ctx context.Context, matchID int64, record FeedbackRecord) error
	GetFeedback(ctx context.Context, matchID int64) (FeedbackRecord, error)

	AdminPatchSegment(ctx context.Context, matchID, segmentID int64, patch SegmentPatch) error
}
