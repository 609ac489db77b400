// Package payer runs the payer negotiation of a match and tracks how the
// other members settle up with the payer.
package payer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/match"
	"github.com/mauv0809/pitchside/internal/permissions"
)

// View is the payer state of a snapshot as seen by its viewer.
type View struct {
	PayerTgID *int64           `json:"payer_tg_id"`
	Payer     *match.PayerInfo `json:"payer,omitempty"`
	IsPayer   bool             `json:"is_payer"`
	// ShowNegotiation is false once a payer exists.
	ShowNegotiation bool                 `json:"show_negotiation"`
	CanRequest      bool                 `json:"can_request"`
	CanAssign       bool                 `json:"can_assign"`
	HasRequested    bool                 `json:"has_requested"`
	OfferForMe      bool                 `json:"offer_for_me"`
	Offered         *match.PayerRequest  `json:"offered,omitempty"`
	Pending         []match.PayerRequest `json:"pending"`
	MyPayment       match.PaymentState   `json:"my_payment"`
	// AwaitingConfirmation lists members whose reported payment the payer
	// still has to confirm or reject.
	AwaitingConfirmation []int64 `json:"awaiting_confirmation"`
}

// Derive builds the payer view of snap.
func Derive(snap *match.Snapshot) View {
	v := View{MyPayment: match.PaymentUnpaid, Pending: []match.PayerRequest{}, AwaitingConfirmation: []int64{}}
	if snap == nil {
		return v
	}
	caps := permissions.ForSnapshot(snap)
	me := snap.Me.TgID

	payerID, hasPayer := snap.Payer()
	if hasPayer {
		id := payerID
		v.PayerTgID = &id
		info := *snap.Payments.Payer
		v.Payer = &info
		v.IsPayer = payerID == me
	}
	v.ShowNegotiation = !hasPayer
	v.CanAssign = caps.CanEditMatch && !hasPayer
	v.CanRequest = caps.CanPay && !hasPayer

	if snap.Payments != nil {
		for _, req := range snap.Payments.Requests {
			switch req.Status {
			case match.RequestPending:
				v.Pending = append(v.Pending, req)
				if req.TgID == me {
					v.HasRequested = true
				}
			case match.RequestOffered:
				r := req
				v.Offered = &r
				if req.TgID == me {
					v.OfferForMe = true
				}
			}
		}
	}
	if hasPayer {
		v.OfferForMe = false
		v.CanRequest = false
	}
	v.MyPayment = snap.PaymentOf(me)

	if v.IsPayer {
		for _, id := range snap.Eligible() {
			tgID, ok := match.ParseID(id)
			if !ok || tgID == me {
				continue
			}
			if snap.PaymentOf(tgID) == match.PaymentReportedPaid {
				v.AwaitingConfirmation = append(v.AwaitingConfirmation, tgID)
			}
		}
	}
	return v
}

// Negotiator issues payer and settlement commands after checking them
// against the current snapshot.
type Negotiator struct {
	session Session
	client  api.Client
}

// NewNegotiator creates a negotiator for the session's match.
func NewNegotiator(session Session, client api.Client) *Negotiator {
	return &Negotiator{session: session, client: client}
}

// View derives the payer view of the current snapshot.
func (n *Negotiator) View() View {
	return Derive(n.session.Snapshot())
}

func (n *Negotiator) run(ctx context.Context, name string, check func(snap *match.Snapshot, v View, caps permissions.Capabilities) error, cmd func(ctx context.Context, matchID int64) error) error {
	return n.session.Do(ctx, name, func(ctx context.Context) error {
		snap := n.session.Snapshot()
		if snap == nil {
			return fmt.Errorf("%w: match not loaded yet", api.ErrTransient)
		}
		if err := check(snap, Derive(snap), permissions.ForSnapshot(snap)); err != nil {
			return err
		}
		return cmd(ctx, snap.Match.ID)
	})
}

var errPayerAssigned = fmt.Errorf("%w: the match already has a payer", api.ErrInvalid)

func eligibleMember(snap *match.Snapshot, tgID int64) error {
	m := snap.MemberOf(tgID)
	if m == nil {
		return fmt.Errorf("%w: member %d", api.ErrNotFound, tgID)
	}
	if !m.Eligible() {
		return fmt.Errorf("%w: spectators cannot pay", api.ErrInvalid)
	}
	return nil
}

// Request nominates the viewer as payer.
func (n *Negotiator) Request(ctx context.Context) error {
	return n.run(ctx, "payer_request",
		func(_ *match.Snapshot, v View, caps permissions.Capabilities) error {
			if v.PayerTgID != nil {
				return errPayerAssigned
			}
			if !caps.CanPay {
				return fmt.Errorf("%w: editors assign the payer instead", api.ErrForbidden)
			}
			if v.HasRequested {
				return fmt.Errorf("%w: already requested", api.ErrInvalid)
			}
			return nil
		},
		n.client.PayerRequest)
}

// Offer proposes the payer role to tgID. A new offer supersedes any earlier
// one.
func (n *Negotiator) Offer(ctx context.Context, tgID int64) error {
	return n.run(ctx, "payer_offer",
		func(snap *match.Snapshot, v View, caps permissions.Capabilities) error {
			if !caps.CanEditMatch {
				return fmt.Errorf("%w: only an organizer can offer the payer role", api.ErrForbidden)
			}
			if v.PayerTgID != nil {
				return errPayerAssigned
			}
			return eligibleMember(snap, tgID)
		},
		func(ctx context.Context, matchID int64) error {
			log.Info("Offering payer role", "match_id", matchID, "tg_id", tgID)
			return n.client.PayerOffer(ctx, matchID, tgID)
		})
}

// Respond accepts or declines an offer made to the viewer.
func (n *Negotiator) Respond(ctx context.Context, accepted bool) error {
	return n.run(ctx, "payer_respond",
		func(_ *match.Snapshot, v View, _ permissions.Capabilities) error {
			if !v.OfferForMe {
				return fmt.Errorf("%w: there is no offer for you", api.ErrInvalid)
			}
			return nil
		},
		func(ctx context.Context, matchID int64) error {
			return n.client.PayerRespond(ctx, matchID, accepted)
		})
}

// Select assigns tgID as payer directly, closing the negotiation.
func (n *Negotiator) Select(ctx context.Context, tgID int64) error {
	return n.run(ctx, "payer_select",
		func(snap *match.Snapshot, v View, caps permissions.Capabilities) error {
			if !caps.CanEditMatch {
				return fmt.Errorf("%w: only an organizer can assign the payer", api.ErrForbidden)
			}
			if v.PayerTgID != nil {
				return errPayerAssigned
			}
			return eligibleMember(snap, tgID)
		},
		func(ctx context.Context, matchID int64) error {
			log.Info("Assigning payer", "match_id", matchID, "tg_id", tgID)
			return n.client.PayerSelect(ctx, matchID, tgID)
		})
}

// Clear gives up the payer role. The payer and organizers may do this.
func (n *Negotiator) Clear(ctx context.Context) error {
	return n.run(ctx, "payer_clear",
		func(_ *match.Snapshot, v View, caps permissions.Capabilities) error {
			if v.PayerTgID == nil {
				return fmt.Errorf("%w: the match has no payer", api.ErrInvalid)
			}
			if !v.IsPayer && !caps.CanEditMatch {
				return fmt.Errorf("%w: only the payer can step down", api.ErrForbidden)
			}
			return nil
		},
		n.client.PayerClear)
}

// SubmitDetails stores the payer's contact details.
func (n *Negotiator) SubmitDetails(ctx context.Context, details api.PayerDetails) error {
	details.FIO = strings.TrimSpace(details.FIO)
	details.Phone = strings.TrimSpace(details.Phone)
	details.Bank = strings.TrimSpace(details.Bank)
	return n.run(ctx, "payer_details",
		func(_ *match.Snapshot, v View, _ permissions.Capabilities) error {
			if !v.IsPayer {
				return fmt.Errorf("%w: only the payer shares payment details", api.ErrForbidden)
			}
			if details.FIO == "" || details.Phone == "" {
				return fmt.Errorf("%w: name and phone are required", api.ErrInvalid)
			}
			return nil
		},
		func(ctx context.Context, matchID int64) error {
			return n.client.PayerDetails(ctx, matchID, details)
		})
}

// MarkPaid reports the viewer's share as paid.
func (n *Negotiator) MarkPaid(ctx context.Context) error {
	return n.run(ctx, "mark_paid",
		func(snap *match.Snapshot, v View, _ permissions.Capabilities) error {
			if v.PayerTgID == nil {
				return fmt.Errorf("%w: there is no payer yet", api.ErrInvalid)
			}
			if err := eligibleMember(snap, snap.Me.TgID); err != nil {
				return err
			}
			switch v.MyPayment {
			case match.PaymentUnpaid, match.PaymentRejected:
				return nil
			}
			return fmt.Errorf("%w: payment already %s", api.ErrInvalid, v.MyPayment)
		},
		n.client.MarkPaid)
}

// Confirm settles a member's reported payment. Only the payer may do this,
// and never for their own share.
func (n *Negotiator) Confirm(ctx context.Context, tgID int64, approved bool) error {
	return n.run(ctx, "confirm_payment",
		func(snap *match.Snapshot, v View, _ permissions.Capabilities) error {
			if !v.IsPayer {
				return fmt.Errorf("%w: only the payer confirms payments", api.ErrForbidden)
			}
			if tgID == snap.Me.TgID {
				return fmt.Errorf("%w: the payer cannot confirm their own payment", api.ErrForbidden)
			}
			if state := snap.PaymentOf(tgID); state != match.PaymentReportedPaid {
				return fmt.Errorf("%w: payment of %d is %s", api.ErrInvalid, tgID, state)
			}
			return nil
		},
		func(ctx context.Context, matchID int64) error {
			log.Info("Settling payment", "match_id", matchID, "tg_id", tgID, "approved", approved)
			return n.client.ConfirmPayment(ctx, matchID, tgID, approved)
		})
}
