package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"recyclefi/internal/model"
	"recyclefi/internal/repository"
	"recyclefi/internal/service"
	"recyclefi/pkg/auth"
	"recyclefi/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// GameRepository is the slice of storage the sort game needs.
type GameRepository interface {
	GetPlayerEnergy(ctx context.Context, userID uuid.UUID) (*model.PlayerEnergy, error)
	ConsumeEnergy(ctx context.Context, userID uuid.UUID) error
}

type sortGameRoutes struct {
	repo GameRepository
	us   service.UserServiceI
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	basePointReward      = 10
	energyRechargeWindow = 8 * time.Hour
)

// Game is one live sort-game session. Players drag waste items into
// bins; correct sorts score, a wrong sort ends the run.
type Game struct {
	PlayerID         uuid.UUID
	TotalEnergy      int
	RemainingEnergy  int
	IsPlaying        bool
	SortCounter      int
	TotalScore       int
	CurrentSortScore int
	streakBonus      int
	conn             *websocket.Conn
}

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

var (
	activeGames = make(map[uuid.UUID]*Game)
	gamesMutex  sync.RWMutex
)

func NewGameRoutes(handler *gin.RouterGroup, repo GameRepository, us service.UserServiceI, session *auth.SessionAuth) {
	r := &sortGameRoutes{repo: repo, us: us}

	h := handler.Group("/game")
	h.Use(session.SessionMiddleware())

	h.GET("/ws", r.handleWebSocket)
}

func (gr *sortGameRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	session, ok := auth.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	game := &Game{
		PlayerID: session.UserID,
		conn:     conn,
	}

	gamesMutex.Lock()
	activeGames[session.UserID] = game
	gamesMutex.Unlock()

	go gr.handleGameLoop(game)
}

func (gr *sortGameRoutes) handleGameLoop(game *Game) {
	log := logger.Logger()

	defer func() {
		game.conn.Close()
		gamesMutex.Lock()
		delete(activeGames, game.PlayerID)
		gamesMutex.Unlock()
	}()

	for {
		_, msg, err := game.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("websocket unexpected close",
					zap.String("player_id", game.PlayerID.String()),
					zap.Error(err))
			}
			break
		}

		var message Message
		if err := json.Unmarshal(msg, &message); err != nil {
			log.Warn("failed to unmarshal game message", zap.Error(err))
			continue
		}

		switch message.Type {
		case "player_state":
			gr.refreshEnergy(game)
			gr.sendPlayerState(game)

		case "game_start":
			if game.IsPlaying {
				continue
			}

			err := gr.repo.ConsumeEnergy(context.Background(), game.PlayerID)
			if err != nil {
				if errors.Is(err, repository.ErrOutOfEnergy) {
					gr.sendOutOfEnergy(game)
					continue
				}
				log.Error("failed to consume energy",
					zap.String("player_id", game.PlayerID.String()),
					zap.Error(err))
				return
			}

			gr.refreshEnergy(game)
			game.IsPlaying = true
			game.SortCounter = 0
			game.TotalScore = 0
			game.CurrentSortScore = 0
			game.streakBonus = 0
			gr.sendGameState(game)

		case "item_sorted":
			if !game.IsPlaying {
				continue
			}

			if !sortedCorrectly(message.Payload) {
				gr.handleGameOver(game)
				continue
			}

			game.CurrentSortScore = basePointReward + game.streakBonus
			game.streakBonus++
			game.TotalScore += game.CurrentSortScore
			game.SortCounter++
			gr.sendGameState(game)

		case "game_over":
			if game.IsPlaying {
				gr.handleGameOver(game)
			}
		}
	}
}

func sortedCorrectly(payload map[string]any) bool {
	correct, ok := payload["correct"].(bool)
	return ok && correct
}

func (gr *sortGameRoutes) refreshEnergy(game *Game) {
	log := logger.Logger()

	energy, err := gr.repo.GetPlayerEnergy(context.Background(), game.PlayerID)
	if err != nil {
		log.Error("failed to get player energy",
			zap.String("player_id", game.PlayerID.String()),
			zap.Error(err))
		return
	}

	game.TotalEnergy = energy.Total
	game.RemainingEnergy = energy.Remaining
}

func (gr *sortGameRoutes) sendPlayerState(game *Game) {
	gr.send(game, Message{
		Type: "player_state",
		Payload: map[string]any{
			"total_energy":     game.TotalEnergy,
			"remaining_energy": game.RemainingEnergy,
		},
	})
}

func (gr *sortGameRoutes) sendGameState(game *Game) {
	gr.send(game, Message{
		Type: "game_state",
		Payload: map[string]any{
			"total_score":        game.TotalScore,
			"current_sort_score": game.CurrentSortScore,
			"sort_counter":       game.SortCounter,
			"total_energy":       game.TotalEnergy,
			"remaining_energy":   game.RemainingEnergy,
			"is_playing":         game.IsPlaying,
		},
	})
}

func (gr *sortGameRoutes) sendOutOfEnergy(game *Game) {
	log := logger.Logger()

	var nextAvailable int64
	energy, err := gr.repo.GetPlayerEnergy(context.Background(), game.PlayerID)
	if err != nil {
		log.Error("failed to get player energy",
			zap.String("player_id", game.PlayerID.String()),
			zap.Error(err))
	} else if energy.UsedAt != nil {
		nextAvailable = energy.UsedAt.UTC().Add(energyRechargeWindow).Unix()
	}

	gr.send(game, Message{
		Type: "error",
		Payload: map[string]any{
			"message":                    "out of energy",
			"next_available_energy_unix": nextAvailable,
		},
	})
}

func (gr *sortGameRoutes) handleGameOver(game *Game) {
	log := logger.Logger()

	game.IsPlaying = false

	reward, err := gr.us.CreditGameScore(context.Background(), game.PlayerID, game.TotalScore)
	if err != nil {
		log.Error("failed to credit game score",
			zap.String("player_id", game.PlayerID.String()),
			zap.Error(err))
	}

	gr.send(game, Message{
		Type: "game_over",
		Payload: map[string]any{
			"final_score":        game.TotalScore,
			"final_sort_counter": game.SortCounter,
			"reward":             reward.String(),
			"remaining_energy":   game.RemainingEnergy,
			"is_playing":         game.IsPlaying,
		},
	})
}

func (gr *sortGameRoutes) send(game *Game, m Message) {
	log := logger.Logger()

	data, err := json.Marshal(m)
	if err != nil {
		log.Error("failed to marshal game message", zap.Error(err))
		return
	}

	if err := game.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Error("failed to write game message",
			zap.String("player_id", game.PlayerID.String()),
			zap.Error(err))
	}
}
