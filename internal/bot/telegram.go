package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"santa3d-contest/internal/logging"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/service"
)

const standingsSize = 10

type StatusSource interface {
	Overview(ctx context.Context) (*service.ContestOverview, error)
}

type StandingsSource interface {
	DefaultMinEvaluations() int
	ComputeRankings(ctx context.Context, minEvaluations, limit int) ([]service.RankingEntry, error)
}

type LikeSyncer interface {
	SyncLikes(ctx context.Context, actor service.Actor) (*service.SyncResult, error)
}

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// AdminBot answers operator commands in the configured admin chats and relays
// contest notices to them.
type AdminBot struct {
	api       botAPI
	chats     map[int64]bool
	status    StatusSource
	standings StandingsSource
	syncer    LikeSyncer
}

func NewAdminBot(token string, adminChats []int64, status StatusSource, standings StandingsSource, syncer LikeSyncer) (*AdminBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	return newAdminBot(api, adminChats, status, standings, syncer), nil
}

func newAdminBot(api botAPI, adminChats []int64, status StatusSource, standings StandingsSource, syncer LikeSyncer) *AdminBot {
	chats := make(map[int64]bool, len(adminChats))
	for _, id := range adminChats {
		chats[id] = true
	}
	return &AdminBot{api: api, chats: chats, status: status, standings: standings, syncer: syncer}
}

// Start polls for updates until ctx is cancelled.
func (b *AdminBot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *AdminBot) Notify(text string) {
	for chatID := range b.chats {
		b.sendMessage(chatID, text)
	}
}

func (b *AdminBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if !message.IsCommand() {
		return
	}
	chatID := message.Chat.ID
	if !b.chats[chatID] {
		logging.Log.WithField("chat_id", chatID).Warn("telegram command from unauthorized chat")
		b.sendMessage(chatID, "This chat is not allowed to operate the contest.")
		return
	}

	switch message.Command() {
	case "start", "help":
		b.sendMessage(chatID, "Commands:\n/status - contest state and video counts\n/standings - current top 10\n/sync - pull Instagram likes now")
	case "status":
		b.sendMessage(chatID, b.statusText(ctx))
	case "standings":
		b.sendMessage(chatID, b.standingsText(ctx))
	case "sync":
		b.sendMessage(chatID, b.syncText(ctx, chatID))
	default:
		b.sendMessage(chatID, "Unknown command. Try /help")
	}
}

func (b *AdminBot) statusText(ctx context.Context) string {
	overview, err := b.status.Overview(ctx)
	if err != nil {
		return "Could not load the contest status."
	}

	var sb strings.Builder
	if overview.State.Closed {
		sb.WriteString("Contest: CLOSED")
		if overview.State.ClosedAt != nil {
			sb.WriteString(" since " + overview.State.ClosedAt.Format("2006-01-02 15:04 MST"))
		}
	} else {
		sb.WriteString("Contest: OPEN")
	}
	if overview.State.PublicScores {
		sb.WriteString("\nScores: public")
	} else {
		sb.WriteString("\nScores: hidden")
	}

	statuses := make([]string, 0, len(overview.Videos))
	for status := range overview.Videos {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Fprintf(&sb, "\n%s: %d", status, overview.Videos[models.VideoStatus(status)])
	}
	return sb.String()
}

func (b *AdminBot) standingsText(ctx context.Context) string {
	entries, err := b.standings.ComputeRankings(ctx, b.standings.DefaultMinEvaluations(), standingsSize)
	if err != nil {
		return "Could not compute the standings."
	}
	if len(entries) == 0 {
		return "No video has enough evaluations yet."
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%d. %s - %.1f (%d evaluations)\n", e.Position, e.ParticipantName, e.AverageScore, e.Scores.Count)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *AdminBot) syncText(ctx context.Context, chatID int64) string {
	actor := service.Actor{ID: fmt.Sprintf("telegram:%d", chatID), Role: models.RoleAdmin}
	result, err := b.syncer.SyncLikes(ctx, actor)
	if err != nil {
		return "Instagram sync failed: " + err.Error()
	}
	return fmt.Sprintf("Instagram sync done: %d posts, %d videos updated, %d validated.",
		result.ProcessedPosts, result.UpdatedVideos, result.ValidatedVideos)
}

func (b *AdminBot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		logging.Log.WithFields(logrus.Fields{"chat_id": chatID, "error": err}).Warn("telegram send failed")
	}
}
