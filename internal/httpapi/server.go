// Package httpapi exposes the command surface over fasthttp and the battle
// event feed over a websocket listener.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/undeadlabs/arena/internal/engine"
	"github.com/undeadlabs/arena/internal/ledger"
	"github.com/undeadlabs/arena/internal/obslog"
	"github.com/undeadlabs/arena/pkg/addr"
	"github.com/undeadlabs/arena/pkg/arenadto"
)

const commandTimeout = 15 * time.Second

// Server handles the JSON command API and record reads.
type Server struct {
	engine   *engine.Engine
	store    ledger.Store
	adminKey string

	httpSrv *fasthttp.Server
}

func NewServer(eng *engine.Engine, store ledger.Store, adminKey string) *Server {
	s := &Server{engine: eng, store: store, adminKey: adminKey}
	s.httpSrv = &fasthttp.Server{
		Handler:            s.route,
		Name:               "arena",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       20 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
	return s
}

// ListenAndServe blocks serving on addr until Shutdown.
func (s *Server) ListenAndServe(listenAddr string) error {
	obslog.L().Info("command api listening", zap.String("addr", listenAddr))
	return s.httpSrv.ListenAndServe(listenAddr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.ShutdownWithContext(ctx)
}

func (s *Server) route(rc *fasthttp.RequestCtx) {
	path := string(rc.Path())
	switch {
	case path == "/healthz":
		rc.SetStatusCode(fasthttp.StatusOK)
		rc.SetBodyString(`{"status":"ok"}`)
	case path == "/v1/command" && rc.IsPost():
		s.handleCommand(rc)
	case path == "/v1/records/config" && rc.IsGet():
		s.readRecord(rc, func(ctx context.Context) (any, error) {
			return s.store.GetConfig(ctx)
		})
	case path == "/v1/records/warrior" && rc.IsGet():
		warriorAddr := string(rc.QueryArgs().Peek("addr"))
		if warriorAddr == "" {
			owner := string(rc.QueryArgs().Peek("owner"))
			name := string(rc.QueryArgs().Peek("name"))
			warriorAddr = addr.Warrior(owner, name)
		}
		s.readRecord(rc, func(ctx context.Context) (any, error) {
			w, _, err := s.store.GetWarrior(ctx, warriorAddr)
			return w, err
		})
	case path == "/v1/records/room" && rc.IsGet():
		roomID := string(rc.QueryArgs().Peek("room_id"))
		s.readRecord(rc, func(ctx context.Context) (any, error) {
			r, _, err := s.store.GetRoom(ctx, addr.Battle(roomID))
			return r, err
		})
	case path == "/v1/records/profile" && rc.IsGet():
		owner := string(rc.QueryArgs().Peek("owner"))
		s.readRecord(rc, func(ctx context.Context) (any, error) {
			return s.store.GetProfile(ctx, addr.Profile(owner))
		})
	case path == "/v1/records/achievements" && rc.IsGet():
		owner := string(rc.QueryArgs().Peek("owner"))
		s.readRecord(rc, func(ctx context.Context) (any, error) {
			return s.store.GetAchievements(ctx, addr.Achievements(owner))
		})
	case path == "/v1/records/leaderboard" && rc.IsGet():
		s.readRecord(rc, func(ctx context.Context) (any, error) {
			return s.store.GetLeaderboard(ctx)
		})
	default:
		rc.SetStatusCode(fasthttp.StatusNotFound)
		rc.SetBodyString(`{"error":"not found"}`)
	}
	rc.SetContentType("application/json")
}

func (s *Server) handleCommand(rc *fasthttp.RequestCtx) {
	var env arenadto.CommandEnvelope
	if err := json.Unmarshal(rc.PostBody(), &env); err != nil {
		writeError(rc, fasthttp.StatusBadRequest, arenadto.DomainError{Code: "BadRequest", Message: "malformed command body"})
		return
	}

	cmd, adminOnly, err := decodeCommand(&env)
	if err != nil {
		writeError(rc, fasthttp.StatusBadRequest, arenadto.DomainError{Code: "BadRequest", Message: err.Error()})
		return
	}
	if adminOnly && !s.adminAuthorized(rc) {
		writeError(rc, fasthttp.StatusForbidden, arenadto.DomainError{Code: "Unauthorized", Message: "admin key missing or wrong"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	result, err := s.engine.Dispatch(ctx, cmd)
	if err != nil {
		var derr arenadto.DomainError
		if errors.As(err, &derr) {
			writeError(rc, statusFor(derr), derr)
			return
		}
		obslog.L().Error("command failed", zap.String("type", env.Type), zap.Error(err))
		writeError(rc, fasthttp.StatusInternalServerError, arenadto.DomainError{Code: "Internal", Message: "internal error"})
		return
	}
	writeJSON(rc, fasthttp.StatusOK, arenadto.CommandResponse{OK: true, Result: result})
}

func (s *Server) adminAuthorized(rc *fasthttp.RequestCtx) bool {
	key := rc.Request.Header.Peek("X-Admin-Key")
	return s.adminKey != "" && subtle.ConstantTimeCompare(key, []byte(s.adminKey)) == 1
}

func (s *Server) readRecord(rc *fasthttp.RequestCtx, fetch func(context.Context) (any, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	v, err := fetch(ctx)
	if err != nil {
		obslog.L().Error("record read failed", zap.Error(err))
		writeError(rc, fasthttp.StatusInternalServerError, arenadto.DomainError{Code: "Internal", Message: "internal error"})
		return
	}
	if isNil(v) {
		writeError(rc, fasthttp.StatusNotFound, arenadto.DomainError{Code: "NotFound", Message: "record not found"})
		return
	}
	writeJSON(rc, fasthttp.StatusOK, arenadto.CommandResponse{OK: true, Result: v})
}

// isNil sees through the typed-nil interfaces the store getters return.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func decodeCommand(env *arenadto.CommandEnvelope) (engine.Command, bool, error) {
	oracleResult, err := decodeHex(env.OracleResult)
	if err != nil {
		return nil, false, fmt.Errorf("oracle_result: %w", err)
	}
	switch env.Type {
	case "initialize":
		return engine.Initialize{
			Actor:              env.Actor,
			WarriorCreationFee: deref(env.WarriorCreationFee),
			BattleEntryFee:     deref(env.BattleEntryFee),
			CooldownSeconds:    deref(env.CooldownSeconds),
			VRFOracle:          env.VRFOracle,
		}, true, nil
	case "update_game_config":
		return engine.UpdateGameConfig{
			Actor:              env.Actor,
			WarriorCreationFee: env.WarriorCreationFee,
			BattleEntryFee:     env.BattleEntryFee,
			CooldownSeconds:    env.CooldownSeconds,
			Paused:             env.Paused,
		}, true, nil
	case "deposit":
		return engine.Deposit{Actor: env.Actor, Amount: env.Amount}, false, nil
	case "create_warrior":
		return engine.CreateWarrior{
			Actor: env.Actor, Name: env.Name, DNA: env.DNA,
			Class: env.Class, ClientSeed: env.ClientSeed,
		}, false, nil
	case "finalize_warrior_stats":
		return engine.FinalizeWarriorStats{
			Actor: env.Actor, WarriorAddr: env.WarriorAddr,
			RequestID: env.RequestID, OracleResult: oracleResult,
		}, false, nil
	case "create_battle_room":
		return engine.CreateBattleRoom{
			Actor: env.Actor, RoomID: env.RoomID, WarriorAddr: env.WarriorAddr,
			Concepts: env.Concepts, Questions: env.Questions, AnswerKey: env.AnswerKey,
		}, false, nil
	case "join_battle_room":
		return engine.JoinBattleRoom{Actor: env.Actor, RoomID: env.RoomID, WarriorAddr: env.WarriorAddr}, false, nil
	case "select_battle_concepts":
		return engine.SelectBattleConcepts{Actor: env.Actor, RoomID: env.RoomID, ClientSeed: env.ClientSeed}, false, nil
	case "finalize_concept_selection":
		return engine.FinalizeConceptSelection{
			Actor: env.Actor, RoomID: env.RoomID,
			RequestID: env.RequestID, OracleResult: oracleResult,
		}, false, nil
	case "signal_ready":
		return engine.SignalReady{Actor: env.Actor, RoomID: env.RoomID}, false, nil
	case "cancel_battle_room":
		return engine.CancelBattleRoom{Actor: env.Actor, RoomID: env.RoomID}, false, nil
	case "delegate_battle":
		return engine.DelegateBattle{Actor: env.Actor, RoomID: env.RoomID}, false, nil
	case "start_battle":
		return engine.StartBattle{Actor: env.Actor, RoomID: env.RoomID}, false, nil
	case "answer_question":
		if env.Answer == nil {
			return nil, false, errors.New("answer is required")
		}
		return engine.AnswerQuestion{
			Actor: env.Actor, RoomID: env.RoomID,
			Answer: *env.Answer, ClientSeed: env.ClientSeed,
		}, false, nil
	case "settle_battle_room":
		return engine.SettleBattleRoom{Actor: env.Actor, RoomID: env.RoomID}, false, nil
	case "undelegate_battle_room":
		return engine.UndelegateBattleRoom{Actor: env.Actor, RoomID: env.RoomID}, false, nil
	case "update_final_state":
		return engine.UpdateFinalState{Actor: env.Actor, RoomID: env.RoomID}, false, nil
	case "emergency_end_battle":
		return engine.EmergencyEndBattle{Actor: env.Actor, RoomID: env.RoomID}, true, nil
	}
	return nil, false, fmt.Errorf("unknown command type %q", env.Type)
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

func deref(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}

func statusFor(err arenadto.DomainError) int {
	switch err.Code {
	case "WarriorNotFound", "RoomNotFound", "ConfigNotFound":
		return fasthttp.StatusNotFound
	case "Unauthorized", "NotParticipant":
		return fasthttp.StatusForbidden
	case "OwnershipMismatch", "WarriorOnCooldown", "GamePaused", "AlreadyDelegated":
		return fasthttp.StatusConflict
	case "InsufficientFee":
		return fasthttp.StatusPaymentRequired
	default:
		return fasthttp.StatusUnprocessableEntity
	}
}

func writeJSON(rc *fasthttp.RequestCtx, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		rc.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	rc.SetStatusCode(status)
	rc.SetBody(raw)
}

func writeError(rc *fasthttp.RequestCtx, status int, derr arenadto.DomainError) {
	writeJSON(rc, status, arenadto.CommandResponse{OK: false, Error: &derr})
}
