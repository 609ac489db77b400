// Package apitest serves an in-memory fake of the match API for tests.
//
// Callers identify as a user with "Authorization: Bearer <tg_id>". State is
// kept in memory and mirrors the rules of the real backend closely enough to
// drive the lifecycle end to end.
package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/match"
)

// FeedbackWindow is how long after finishing a match feedback is accepted.
const FeedbackWindow = 72 * time.Hour

type user struct {
	name  string
	admin bool
}

type matchState struct {
	match    match.Match
	members  []match.Member
	segments []match.Segment
	events   []match.Event
	variants []match.TeamVariant
	current  *match.TeamCurrent
	payer    *match.PayerInfo
	requests []match.PayerRequest
	statuses []match.PaymentEntry
	feedback map[int64]api.FeedbackRecord
}

type failure struct {
	status int
	code   string
}

// Server is the fake API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	clock    time.Time
	nextID   int64
	users    map[int64]user
	matches  map[int64]*matchState
	failures []failure
	requests []string
}

// New starts a fake API server. Close it when done.
func New() *Server {
	s := &Server{
		clock:   time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
		nextID:  1,
		users:   make(map[int64]user),
		matches: make(map[int64]*matchState),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// AddUser registers a user that may authenticate.
func (s *Server) AddUser(tgID int64, name string, admin bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[tgID] = user{name: name, admin: admin}
}

// ClientFor returns a real API client authenticated as tgID.
func (s *Server) ClientFor(tgID int64) *api.APIClient {
	return api.NewClient(s.URL, api.WithToken(strconv.FormatInt(tgID, 10)), api.WithHTTPClient(s.Server.Client()))
}

// FailNext makes the next request fail with status and error code.
func (s *Server) FailNext(status int, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, code: code})
}

// Advance moves the server clock forward.
func (s *Server) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(d)
}

// Requests returns "METHOD path" of every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) now() *match.Time {
	s.clock = s.clock.Add(time.Second)
	return match.NewTime(s.clock)
}

func (s *Server) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.gate)

	r.Get("/matches", s.listMatches)
	r.Post("/matches", s.createMatch)
	r.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", s.withMatch(s.getMatch))
		r.Post("/join", s.withMatch(s.join))
		r.Post("/spectate", s.withMatch(s.spectate))
		r.Post("/leave", s.withMatch(s.leave))
		r.Post("/repeat", s.withMatch(s.repeat))
		r.Patch("/members/{tgID}/permissions", s.withMatch(s.permissions))

		r.Post("/teams/generate", s.withMatch(s.generate))
		r.Post("/teams/select", s.withMatch(s.selectTeams))
		r.Post("/teams/custom", s.withMatch(s.customTeams))
		r.Post("/teams/revert", s.withMatch(s.revertTeams))

		r.Post("/start", s.withMatch(s.start))
		r.Post("/finish", s.withMatch(s.finish))
		r.Post("/segments/new", s.withMatch(s.newSegment))
		r.Delete("/segments/{segmentID}", s.withMatch(s.deleteSegment))
		r.Post("/events/goal", s.withMatch(s.goal))
		r.Post("/events/own-goal", s.withMatch(s.ownGoal))
		r.Patch("/events/{eventID}", s.withMatch(s.patchEvent))
		r.Delete("/events/{eventID}", s.withMatch(s.deleteEvent))

		r.Post("/payer/request", s.withMatch(s.payerRequest))
		r.Post("/payer/offer", s.withMatch(s.payerOffer))
		r.Post("/payer/respond", s.withMatch(s.payerRespond))
		r.Post("/payer/select", s.withMatch(s.payerSelect))
		r.Post("/payer/clear", s.withMatch(s.payerClear))
		r.Post("/payer/details", s.withMatch(s.payerDetails))
		r.Post("/payments/mark-paid", s.withMatch(s.markPaid))
		r.Post("/payments/confirm", s.withMatch(s.confirmPayment))

		r.Get("/feedback", s.withMatch(s.getFeedback))
		r.Post("/feedback", s.withMatch(s.submitFeedback))
	})
	r.Patch("/admin/matches/{matchID}/segments/{segmentID}", s.withMatch(s.adminPatchSegment))
	return r
}

// gate authenticates the caller, applies injected failures and serializes
// access to the state.
func (s *Server) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)

		if len(s.failures) > 0 {
			f := s.failures[0]
			s.failures = s.failures[1:]
			writeErr(w, f.code, f.status)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		tgID, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			writeErr(w, "init_data_missing", http.StatusUnauthorized)
			return
		}
		if _, ok := s.users[tgID]; !ok {
			writeErr(w, "user_missing", http.StatusUnauthorized)
			return
		}
		r.Header.Set("X-Test-User", token)
		next.ServeHTTP(w, r)
	})
}

type handler func(w http.ResponseWriter, r *http.Request, me int64, m *matchState)

func (s *Server) withMatch(h handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := strconv.ParseInt(r.Header.Get("X-Test-User"), 10, 64)
		id, err := strconv.ParseInt(chi.URLParam(r, "matchID"), 10, 64)
		if err != nil {
			writeErr(w, "match_not_found", http.StatusNotFound)
			return
		}
		m, ok := s.matches[id]
		if !ok {
			writeErr(w, "match_not_found", http.StatusNotFound)
			return
		}
		h(w, r, me, m)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, fields map[string]any) {
	out := map[string]any{"ok": true}
	for k, v := range fields {
		out[k] = v
	}
	writeJSON(w, http.StatusOK, out)
}

func writeErr(w http.ResponseWriter, code string, status int) {
	writeJSON(w, status, map[string]any{"ok": false, "error": code})
}

func decode(r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(v)
	return err == nil || errors.Is(err, io.EOF)
}

func (m *matchState) member(tgID int64) *match.Member {
	for i := range m.members {
		if m.members[i].TgID == tgID {
			return &m.members[i]
		}
	}
	return nil
}

func (s *Server) isAdmin(tgID int64) bool {
	return s.users[tgID].admin
}

func (s *Server) organizer(m *matchState, tgID int64) bool {
	if s.isAdmin(tgID) {
		return true
	}
	mem := m.member(tgID)
	return mem != nil && mem.Role == match.RoleOrganizer
}

func (s *Server) canScore(m *matchState, tgID int64) bool {
	if s.isAdmin(tgID) {
		return true
	}
	mem := m.member(tgID)
	return mem != nil && (mem.Role != match.RoleSpectator || mem.CanEdit)
}

func (s *Server) canEdit(m *matchState, tgID int64) bool {
	if s.organizer(m, tgID) {
		return true
	}
	mem := m.member(tgID)
	return mem != nil && mem.CanEdit
}

func (m *matchState) eligible() []string {
	var ids []string
	for _, mem := range m.members {
		if mem.Eligible() {
			ids = append(ids, match.IDString(mem.TgID))
		}
	}
	return ids
}

func (m *matchState) active() *match.Segment {
	for i := range m.segments {
		if m.segments[i].Active() {
			return &m.segments[i]
		}
	}
	return nil
}

func (m *matchState) segment(id int64) *match.Segment {
	for i := range m.segments {
		if m.segments[i].ID == id {
			return &m.segments[i]
		}
	}
	return nil
}

func (m *matchState) recompute(segmentID int64) {
	seg := m.segment(segmentID)
	if seg == nil {
		return
	}
	var score match.Score
	for _, ev := range m.events {
		if ev.SegmentID == segmentID {
			score.Add(ev.Team, 1)
		}
	}
	seg.ScoreA, seg.ScoreB = score.A, score.B
}

func (s *Server) snapshot(m *matchState, me int64) match.Snapshot {
	out := match.Snapshot{
		Match:        m.match,
		Members:      append([]match.Member(nil), m.members...),
		Segments:     append([]match.Segment(nil), m.segments...),
		Events:       append([]match.Event(nil), m.events...),
		TeamVariants: make([]match.TeamVariant, 0, len(m.variants)),
		Me:           match.Me{TgID: me, IsAdmin: s.isAdmin(me)},
	}
	for i := range out.Members {
		out.Members[i].Name = s.users[out.Members[i].TgID].name
	}
	for _, v := range m.variants {
		v.Teams = v.Teams.Clone()
		out.TeamVariants = append(out.TeamVariants, v)
	}
	if m.current != nil {
		current := *m.current
		current.CurrentTeams = current.CurrentTeams.Clone()
		out.TeamCurrent = &current
	}
	payments := &match.Payments{
		Requests: append([]match.PayerRequest{}, m.requests...),
		Statuses: append([]match.PaymentEntry{}, m.statuses...),
	}
	if m.payer != nil {
		payer := *m.payer
		payments.Payer = &payer
	}
	out.Payments = payments

	votes := make(map[string]int)
	var top *int64
	best := 0
	ids := make([]int64, 0, len(m.feedback))
	for id := range m.feedback {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if vote := m.feedback[id].MVPVoteTgID; vote != nil {
			key := match.IDString(*vote)
			votes[key]++
			if votes[key] > best {
				best = votes[key]
				v := *vote
				top = &v
			}
		}
	}
	out.MVP = &match.MVP{TopTgID: top, Votes: votes}
	return out
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	ids := make([]int64, 0, len(s.matches))
	for id := range s.matches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	out := make([]match.Match, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.matches[id].match)
	}
	writeOK(w, map[string]any{"matches": out})
}

func (s *Server) newMatch(creator int64, contextID int64, venue string, scheduled *match.Time) *matchState {
	if contextID == 0 {
		contextID = 1
	}
	id := s.id()
	m := &matchState{
		match: match.Match{
			ID:          id,
			ContextID:   contextID,
			CreatedBy:   creator,
			ScheduledAt: scheduled,
			Venue:       venue,
			Status:      match.StatusCreated,
			CreatedAt:   s.now(),
		},
		members:  []match.Member{{TgID: creator, Role: match.RoleOrganizer, CanEdit: true, JoinedAt: s.now()}},
		feedback: make(map[int64]api.FeedbackRecord),
	}
	s.matches[id] = m
	return m
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	me, _ := strconv.ParseInt(r.Header.Get("X-Test-User"), 10, 64)
	var body struct {
		ContextID   int64       `json:"context_id"`
		Venue       string      `json:"venue"`
		ScheduledAt *match.Time `json:"scheduled_at"`
	}
	if !decode(r, &body) || strings.TrimSpace(body.Venue) == "" {
		writeErr(w, "missing_context_or_venue", http.StatusBadRequest)
		return
	}
	m := s.newMatch(me, body.ContextID, strings.TrimSpace(body.Venue), body.ScheduledAt)
	writeOK(w, map[string]any{"id": m.match.ID})
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	snap := s.snapshot(m, me)
	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		match.Snapshot
	}{true, snap})
}

func (s *Server) join(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if mem := m.member(me); mem != nil {
		if mem.Role == match.RoleSpectator {
			mem.Role = match.RolePlayer
		}
		writeOK(w, nil)
		return
	}
	m.members = append(m.members, match.Member{TgID: me, Role: match.RolePlayer, JoinedAt: s.now()})
	writeOK(w, nil)
}

func (s *Server) spectate(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if mem := m.member(me); mem != nil {
		if mem.Role == match.RolePlayer {
			mem.Role = match.RoleSpectator
		}
		writeOK(w, nil)
		return
	}
	m.members = append(m.members, match.Member{TgID: me, Role: match.RoleSpectator, JoinedAt: s.now()})
	writeOK(w, nil)
}

func (s *Server) leave(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	mem := m.member(me)
	if mem == nil {
		writeErr(w, "not_a_member", http.StatusBadRequest)
		return
	}
	if mem.Role == match.RoleOrganizer {
		writeErr(w, "organizer_cannot_leave", http.StatusBadRequest)
		return
	}
	kept := m.members[:0]
	for _, other := range m.members {
		if other.TgID != me {
			kept = append(kept, other)
		}
	}
	m.members = kept
	writeOK(w, nil)
}

func (s *Server) permissions(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.organizer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	tgID, _ := strconv.ParseInt(chi.URLParam(r, "tgID"), 10, 64)
	mem := m.member(tgID)
	if mem == nil {
		writeErr(w, "member_not_found", http.StatusNotFound)
		return
	}
	var body struct {
		CanEdit *bool `json:"can_edit"`
	}
	if !decode(r, &body) || body.CanEdit == nil {
		writeErr(w, "missing_can_edit", http.StatusBadRequest)
		return
	}
	mem.CanEdit = *body.CanEdit
	writeOK(w, nil)
}

func (s *Server) repeat(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if m.match.Status != match.StatusFinished {
		writeErr(w, "match_not_finished", http.StatusBadRequest)
		return
	}
	if !s.organizer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	next := s.newMatch(me, m.match.ContextID, m.match.Venue, nil)
	for _, mem := range m.members {
		if mem.Eligible() && mem.TgID != me {
			next.members = append(next.members, match.Member{TgID: mem.TgID, Role: match.RolePlayer, JoinedAt: s.now()})
		}
	}
	next.variants = buildVariants(next.eligible())
	writeOK(w, map[string]any{"id": next.match.ID})
}

// buildVariants splits players three deterministic ways. The first
// variant is the recommended one.
func buildVariants(ids []string) []match.TeamVariant {
	splits := []func(i, n int) bool{
		func(i, n int) bool { return i%2 == 0 },
		func(i, n int) bool { return i < (n+1)/2 },
		func(i, n int) bool { return i%2 == 1 },
	}
	variants := make([]match.TeamVariant, 0, len(splits))
	for no, onA := range splits {
		teams := match.Teams{A: match.IDList{}, B: match.IDList{}}
		for i, id := range ids {
			if onA(i, len(ids)) {
				teams.A = append(teams.A, id)
			} else {
				teams.B = append(teams.B, id)
			}
		}
		v := match.TeamVariant{VariantNo: no + 1, IsRecommended: no == 0, Teams: teams}
		if no > 0 {
			why := fmt.Sprintf("Variant %d is less balanced than variant 1.", no+1)
			v.WhyText = &why
		}
		variants = append(variants, v)
	}
	return variants
}

func numericIDs(ids match.IDList) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		n, _ := match.ParseID(id)
		out = append(out, n)
	}
	return out
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.organizer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	ids := m.eligible()
	if len(ids) < 2 {
		writeErr(w, "not_enough_players", http.StatusBadRequest)
		return
	}
	m.variants = buildVariants(ids)

	// Fresh variants carry raw numeric ids under team_a/team_b.
	out := make([]map[string]any, 0, len(m.variants))
	for _, v := range m.variants {
		out = append(out, map[string]any{
			"variant_no":     v.VariantNo,
			"is_recommended": v.IsRecommended,
			"teams":          map[string]any{"team_a": numericIDs(v.Teams.A), "team_b": numericIDs(v.Teams.B)},
			"why_text":       v.WhyText,
		})
	}
	writeOK(w, map[string]any{"variants": out})
}

func (m *matchState) variant(no int) *match.TeamVariant {
	for i := range m.variants {
		if m.variants[i].VariantNo == no {
			return &m.variants[i]
		}
	}
	return nil
}

func (s *Server) selectTeams(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.organizer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	var body api.SelectTeamsParams
	if !decode(r, &body) {
		writeErr(w, "invalid_payload", http.StatusBadRequest)
		return
	}
	if body.VariantNo == 0 {
		body.VariantNo = 1
	}
	v := m.variant(body.VariantNo)
	if v == nil {
		writeErr(w, "variant_not_found", http.StatusNotFound)
		return
	}
	teams := v.Teams.Clone()
	teams.NameA, teams.NameB = body.TeamNameA, body.TeamNameB
	if m.current != nil {
		if teams.NameA == "" {
			teams.NameA = m.current.CurrentTeams.NameA
		}
		if teams.NameB == "" {
			teams.NameB = m.current.CurrentTeams.NameB
		}
	}
	m.current = &match.TeamCurrent{BaseVariantNo: body.VariantNo, CurrentTeams: teams}
	writeOK(w, nil)
}

func (s *Server) customTeams(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.organizer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	var body struct {
		BaseVariantNo int         `json:"base_variant_no"`
		Teams         match.Teams `json:"teams"`
		TeamNameA     string      `json:"team_name_a"`
		TeamNameB     string      `json:"team_name_b"`
	}
	if !decode(r, &body) {
		writeErr(w, "invalid_payload", http.StatusBadRequest)
		return
	}
	if body.BaseVariantNo == 0 {
		body.BaseVariantNo = 1
	}
	v := m.variant(body.BaseVariantNo)
	if v == nil {
		writeErr(w, "variant_not_found", http.StatusNotFound)
		return
	}
	if err := match.ValidatePartition(body.Teams, m.eligible()); err != nil {
		writeErr(w, "invalid_payload", http.StatusBadRequest)
		return
	}
	moved := 0
	for _, id := range body.Teams.A {
		if !v.Teams.A.Contains(id) {
			moved++
		}
	}
	why := fmt.Sprintf("%d player(s) moved away from variant %d.", moved, body.BaseVariantNo)
	teams := body.Teams.Clone()
	teams.NameA, teams.NameB = body.TeamNameA, body.TeamNameB
	if m.current != nil {
		if teams.NameA == "" {
			teams.NameA = m.current.CurrentTeams.NameA
		}
		if teams.NameB == "" {
			teams.NameB = m.current.CurrentTeams.NameB
		}
	}
	m.current = &match.TeamCurrent{BaseVariantNo: body.BaseVariantNo, CurrentTeams: teams, IsCustom: true, WhyNowWorseText: &why}
	writeOK(w, map[string]any{"why_text": why})
}

func (s *Server) revertTeams(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.organizer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	if m.current == nil {
		writeErr(w, "current_not_found", http.StatusNotFound)
		return
	}
	v := m.variant(m.current.BaseVariantNo)
	if v == nil {
		writeErr(w, "variant_not_found", http.StatusNotFound)
		return
	}
	teams := v.Teams.Clone()
	teams.NameA, teams.NameB = m.current.CurrentTeams.NameA, m.current.CurrentTeams.NameB
	m.current = &match.TeamCurrent{BaseVariantNo: v.VariantNo, CurrentTeams: teams}
	writeOK(w, nil)
}

func (s *Server) start(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.organizer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	if m.match.Status == match.StatusFinished {
		writeErr(w, "match_finished", http.StatusBadRequest)
		return
	}
	m.match.Status = match.StatusLive
	if len(m.segments) == 0 {
		m.segments = append(m.segments, match.Segment{ID: s.id(), SegNo: 1})
	}
	writeOK(w, nil)
}

func (s *Server) finish(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.organizer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	var body struct {
		IsButtGame bool `json:"is_butt_game"`
	}
	decode(r, &body)
	if seg := m.active(); seg != nil {
		seg.EndedAt = s.now()
		seg.IsButtGame = body.IsButtGame
	}
	m.match.Status = match.StatusFinished
	m.match.FinishedAt = s.now()
	final := finalScore(m.segments)
	m.match.ScoreA, m.match.ScoreB = final.A, final.B
	writeOK(w, nil)
}

func finalScore(segments []match.Segment) match.Score {
	snap := match.Snapshot{Segments: segments}
	return snap.FinalScore()
}

func (s *Server) newSegment(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.canScore(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	if m.match.Status != match.StatusLive {
		writeErr(w, "match_not_live", http.StatusBadRequest)
		return
	}
	var body struct {
		IsButtGame bool `json:"is_butt_game"`
	}
	decode(r, &body)
	seg := match.Segment{ID: s.id(), SegNo: 1, IsButtGame: body.IsButtGame}
	for i := range m.segments {
		if m.segments[i].Active() {
			m.segments[i].EndedAt = s.now()
		}
		if m.segments[i].SegNo >= seg.SegNo {
			seg.SegNo = m.segments[i].SegNo + 1
		}
	}
	m.segments = append(m.segments, seg)
	writeOK(w, map[string]any{"segment_id": seg.ID, "seg_no": seg.SegNo})
}

func (s *Server) deleteSegment(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.organizer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "segmentID"), 10, 64)
	seg := m.segment(id)
	if seg == nil {
		writeErr(w, "segment_not_found", http.StatusNotFound)
		return
	}
	if seg.Active() {
		writeErr(w, "segment_not_finished", http.StatusBadRequest)
		return
	}
	events := m.events[:0]
	for _, ev := range m.events {
		if ev.SegmentID != id {
			events = append(events, ev)
		}
	}
	m.events = events
	segments := m.segments[:0]
	for _, other := range m.segments {
		if other.ID != id {
			segments = append(segments, other)
		}
	}
	m.segments = segments
	writeOK(w, nil)
}

func (s *Server) addEvent(m *matchState, me int64, typ match.EventType, team match.Team, scorer, assist *int64) (int64, string) {
	if m.match.Status != match.StatusLive {
		return 0, "match_not_live"
	}
	seg := m.active()
	if seg == nil {
		return 0, "no_active_segment"
	}
	now := s.now()
	ev := match.Event{
		ID:            s.id(),
		SegmentID:     seg.ID,
		EventType:     typ,
		Team:          team,
		ScorerTgID:    scorer,
		AssistTgID:    assist,
		CreatedByTgID: me,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.events = append(m.events, ev)
	if team == match.TeamA {
		seg.ScoreA++
	} else {
		seg.ScoreB++
	}
	return ev.ID, ""
}

func (s *Server) goal(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.canScore(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	var body struct {
		Team       match.Team `json:"team"`
		ScorerTgID *int64     `json:"scorer_tg_id"`
		AssistTgID *int64     `json:"assist_tg_id"`
	}
	if !decode(r, &body) || !body.Team.Valid() || body.ScorerTgID == nil {
		writeErr(w, "invalid_payload", http.StatusBadRequest)
		return
	}
	id, code := s.addEvent(m, me, match.EventGoal, body.Team, body.ScorerTgID, body.AssistTgID)
	if code != "" {
		writeErr(w, code, http.StatusBadRequest)
		return
	}
	writeOK(w, map[string]any{"event_id": id})
}

func (s *Server) ownGoal(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.canScore(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	var body struct {
		Team match.Team `json:"team"`
	}
	if !decode(r, &body) || !body.Team.Valid() {
		writeErr(w, "invalid_payload", http.StatusBadRequest)
		return
	}
	id, code := s.addEvent(m, me, match.EventOwnGoal, body.Team.Opposite(), nil, nil)
	if code != "" {
		writeErr(w, code, http.StatusBadRequest)
		return
	}
	writeOK(w, map[string]any{"event_id": id})
}

func (m *matchState) eventIndex(r *http.Request) int {
	id, _ := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	for i := range m.events {
		if m.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) patchEvent(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.canEdit(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	i := m.eventIndex(r)
	if i < 0 {
		writeErr(w, "event_not_found", http.StatusNotFound)
		return
	}
	var body api.EventPatch
	decode(r, &body)
	if body.ScorerTgID != nil {
		m.events[i].ScorerTgID = body.ScorerTgID
	}
	if body.AssistTgID != nil {
		m.events[i].AssistTgID = body.AssistTgID
	}
	m.events[i].UpdatedAt = s.now()
	writeOK(w, nil)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.canEdit(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	i := m.eventIndex(r)
	if i < 0 {
		writeErr(w, "event_not_found", http.StatusNotFound)
		return
	}
	segmentID := m.events[i].SegmentID
	m.events = append(m.events[:i], m.events[i+1:]...)
	m.recompute(segmentID)
	writeOK(w, nil)
}

func (m *matchState) request(tgID int64) *match.PayerRequest {
	for i := range m.requests {
		if m.requests[i].TgID == tgID {
			return &m.requests[i]
		}
	}
	return nil
}

func (m *matchState) setRequest(tgID int64, status match.RequestState) {
	if req := m.request(tgID); req != nil {
		req.Status = status
		return
	}
	m.requests = append(m.requests, match.PayerRequest{TgID: tgID, Status: status})
}

func (s *Server) payerRequest(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	m.setRequest(me, match.RequestPending)
	writeOK(w, nil)
}

func (s *Server) payerOffer(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.organizer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	if m.payer != nil && m.payer.PayerTgID != nil {
		writeErr(w, "payer_already_set", http.StatusBadRequest)
		return
	}
	var body struct {
		TgID int64 `json:"tg_id"`
	}
	if !decode(r, &body) || body.TgID == 0 {
		writeErr(w, "missing_tg_id", http.StatusBadRequest)
		return
	}
	for i := range m.requests {
		if m.requests[i].Status == match.RequestOffered {
			m.requests[i].Status = match.RequestCanceled
		}
	}
	m.setRequest(body.TgID, match.RequestOffered)
	writeOK(w, nil)
}

func (s *Server) assignPayer(m *matchState, tgID int64) {
	id := tgID
	m.payer = &match.PayerInfo{PayerTgID: &id, Status: "chosen"}
	// Assigning a payer closes the negotiation.
	for i := range m.requests {
		if m.requests[i].TgID == tgID {
			m.requests[i].Status = match.RequestAccepted
		} else if m.requests[i].Status.Active() {
			m.requests[i].Status = match.RequestCanceled
		}
	}
}

func (s *Server) payerRespond(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	var body struct {
		Accepted bool `json:"accepted"`
	}
	decode(r, &body)
	req := m.request(me)
	if req == nil || req.Status != match.RequestOffered {
		writeErr(w, "no_offer", http.StatusBadRequest)
		return
	}
	if !body.Accepted {
		req.Status = match.RequestDeclined
		writeOK(w, nil)
		return
	}
	s.assignPayer(m, me)
	writeOK(w, nil)
}

func (s *Server) payerSelect(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.organizer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	var body struct {
		PayerTgID int64 `json:"payer_tg_id"`
	}
	if !decode(r, &body) || body.PayerTgID == 0 {
		writeErr(w, "missing_payer", http.StatusBadRequest)
		return
	}
	m.setRequest(body.PayerTgID, match.RequestAccepted)
	s.assignPayer(m, body.PayerTgID)
	writeOK(w, nil)
}

func (s *Server) payerClear(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if m.payer == nil || m.payer.PayerTgID == nil {
		writeErr(w, "payer_not_set", http.StatusBadRequest)
		return
	}
	if *m.payer.PayerTgID != me && !s.organizer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	m.payer = &match.PayerInfo{Status: "none"}
	writeOK(w, nil)
}

func (s *Server) isPayer(m *matchState, tgID int64) bool {
	return m.payer != nil && m.payer.PayerTgID != nil && *m.payer.PayerTgID == tgID
}

func (s *Server) payerDetails(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.isPayer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	var body api.PayerDetails
	decode(r, &body)
	m.payer.PayerFIO, m.payer.PayerPhone, m.payer.PayerBank = &body.FIO, &body.Phone, &body.Bank
	m.payer.Status = "details_set"
	writeOK(w, nil)
}

func (m *matchState) setPayment(tgID int64, status match.PaymentState) {
	for i := range m.statuses {
		if m.statuses[i].TgID == tgID {
			m.statuses[i].Status = status
			return
		}
	}
	m.statuses = append(m.statuses, match.PaymentEntry{TgID: tgID, Status: status})
}

func (s *Server) markPaid(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	m.setPayment(me, match.PaymentReportedPaid)
	writeOK(w, nil)
}

func (s *Server) confirmPayment(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.isPayer(m, me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	var body struct {
		TgID     int64 `json:"tg_id"`
		Approved bool  `json:"approved"`
	}
	if !decode(r, &body) || body.TgID == 0 {
		writeErr(w, "missing_tg_id", http.StatusBadRequest)
		return
	}
	if body.Approved {
		m.setPayment(body.TgID, match.PaymentConfirmed)
	} else {
		m.setPayment(body.TgID, match.PaymentRejected)
	}
	writeOK(w, nil)
}

func (s *Server) getFeedback(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	record, ok := m.feedback[me]
	if !ok {
		writeOK(w, map[string]any{"answers_json": nil, "mvp_vote_tg_id": nil})
		return
	}
	writeOK(w, map[string]any{"answers_json": record.AnswersJSON, "mvp_vote_tg_id": record.MVPVoteTgID})
}

func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	var body api.FeedbackRecord
	if !decode(r, &body) || len(body.AnswersJSON) == 0 || string(body.AnswersJSON) == "null" {
		writeErr(w, "missing_answers", http.StatusBadRequest)
		return
	}
	if m.match.Status != match.StatusFinished || m.match.FinishedAt == nil {
		writeErr(w, "match_not_finished", http.StatusBadRequest)
		return
	}
	if s.clock.Sub(m.match.FinishedAt.Time) > FeedbackWindow {
		writeErr(w, "feedback_closed", http.StatusForbidden)
		return
	}
	m.feedback[me] = body
	writeOK(w, nil)
}

func (s *Server) adminPatchSegment(w http.ResponseWriter, r *http.Request, me int64, m *matchState) {
	if !s.isAdmin(me) {
		writeErr(w, "forbidden", http.StatusForbidden)
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "segmentID"), 10, 64)
	seg := m.segment(id)
	if seg == nil {
		writeErr(w, "segment_not_found", http.StatusNotFound)
		return
	}
	var body api.SegmentPatch
	decode(r, &body)
	if body.ScoreA != nil {
		seg.ScoreA = *body.ScoreA
	}
	if body.ScoreB != nil {
		seg.ScoreB = *body.ScoreB
	}
	if body.EndedAt != nil {
		seg.EndedAt = match.NewTime(*body.EndedAt)
	}
	writeOK(w, nil)
}
