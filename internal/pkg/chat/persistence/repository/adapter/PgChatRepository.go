package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgForeignKeyViolation = "23503"

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgChatRepository struct {
	pool *pgxpool.Pool
	db   DBTX
	inTx bool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool, db: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

func (r *PgChatRepository) InTx(ctx context.Context, fn func(tx repository.ChatRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	if r.inTx {
		return fn(r)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(&PgChatRepository{pool: r.pool, db: tx, inTx: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// lockClause share-locks membership rows read inside a transaction so that a
// concurrent removal waits for the reader to commit.
func (r *PgChatRepository) lockClause() string {
	if r.inTx {
		return " FOR SHARE"
	}
	return ""
}

func (r *PgChatRepository) FindParticipant(ctx context.Context, conversationID string, userID int64) (*chat.Participant, error) {
	if !validConversationID(conversationID) {
		return nil, nil
	}
	var p chat.Participant
	err := r.db.QueryRow(ctx, `
		SELECT id, conversation_id::text, user_id, joined_at
		FROM chat.participant
		WHERE conversation_id = $1::uuid AND user_id = $2`+r.lockClause(),
		conversationID, userID,
	).Scan(&p.ID, &p.ConversationID, &p.UserID, &p.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgChatRepository) ListParticipants(ctx context.Context, conversationID string) ([]chat.Participant, error) {
	if !validConversationID(conversationID) {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id::text, user_id, joined_at
		FROM chat.participant
		WHERE conversation_id = $1::uuid
		ORDER BY joined_at, id`+r.lockClause(),
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []chat.Participant
	for rows.Next() {
		var p chat.Participant
		if err := rows.Scan(&p.ID, &p.ConversationID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return participants, nil
}

func (r *PgChatRepository) CreateParticipant(ctx context.Context, conversationID string, userID int64) (*chat.Participant, error) {
	if !validConversationID(conversationID) {
		return nil, chat.ErrConversationNotFound
	}
	var p chat.Participant
	err := r.db.QueryRow(ctx, `
		INSERT INTO chat.participant (conversation_id, user_id)
		VALUES ($1::uuid, $2)
		ON CONFLICT (conversation_id, user_id) DO NOTHING
		RETURNING id, conversation_id::text, user_id, joined_at
	`, conversationID, userID).Scan(&p.ID, &p.ConversationID, &p.UserID, &p.JoinedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, chat.ErrAlreadyParticipant
	case isPgError(err, pgForeignKeyViolation):
		return nil, chat.ErrUserNotFound
	case err != nil:
		return nil, err
	}
	return &p, nil
}

func (r *PgChatRepository) DeleteParticipant(ctx context.Context, conversationID string, userID int64) error {
	if !validConversationID(conversationID) {
		return chat.ErrUserNotFound
	}
	ct, err := r.db.Exec(ctx, `
		DELETE FROM chat.participant
		WHERE conversation_id = $1::uuid AND user_id = $2
	`, conversationID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrUserNotFound
	}
	return nil
}

func (r *PgChatRepository) FindConversation(ctx context.Context, conversationID string) (*chat.Conversation, error) {
	if !validConversationID(conversationID) {
		return nil, nil
	}
	var c chat.Conversation
	err := r.db.QueryRow(ctx, `
		SELECT id::text, is_group, created_at, updated_at
		FROM chat.conversation
		WHERE id = $1::uuid
	`, conversationID).Scan(&c.ID, &c.IsGroup, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgChatRepository) CreateConversation(ctx context.Context, isGroup bool) (*chat.Conversation, error) {
	var c chat.Conversation
	err := r.db.QueryRow(ctx, `
		INSERT INTO chat.conversation (is_group)
		VALUES ($1)
		RETURNING id::text, is_group, created_at, updated_at
	`, isGroup).Scan(&c.ID, &c.IsGroup, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgChatRepository) DeleteConversation(ctx context.Context, conversationID string) error {
	if !validConversationID(conversationID) {
		return chat.ErrConversationNotFound
	}
	ct, err := r.db.Exec(ctx, `DELETE FROM chat.conversation WHERE id = $1::uuid`, conversationID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrConversationNotFound
	}
	return nil
}

func (r *PgChatRepository) FindDirectConversation(ctx context.Context, userA, userB int64) (*chat.Conversation, error) {
	var c chat.Conversation
	err := r.db.QueryRow(ctx, `
		SELECT c.id::text, c.is_group, c.created_at, c.updated_at
		FROM chat.conversation c
		WHERE c.is_group = FALSE
		  AND EXISTS (SELECT 1 FROM chat.participant p WHERE p.conversation_id = c.id AND p.user_id = $1)
		  AND EXISTS (SELECT 1 FROM chat.participant p WHERE p.conversation_id = c.id AND p.user_id = $2)
		ORDER BY c.created_at, c.id
		LIMIT 1
	`, userA, userB).Scan(&c.ID, &c.IsGroup, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgChatRepository) TouchConversation(ctx context.Context, conversationID string, at time.Time) error {
	if !validConversationID(conversationID) {
		return chat.ErrConversationNotFound
	}
	_, err := r.db.Exec(ctx, `
		UPDATE chat.conversation
		SET updated_at = GREATEST(updated_at, $2::timestamptz)
		WHERE id = $1::uuid
	`, conversationID, at)
	return err
}

func (r *PgChatRepository) CreateMessage(ctx context.Context, m chat.Message) (*chat.Message, error) {
	if !validConversationID(m.ConversationID) {
		return nil, chat.ErrConversationNotFound
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	var out chat.Message
	err := r.db.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO chat.message (conversation_id, sender_id, content, created_at)
			VALUES ($1::uuid, $2, $3, $4)
			RETURNING id, conversation_id, sender_id, content, created_at
		)
		SELECT i.id, i.conversation_id::text, i.sender_id, u.username, i.content, i.created_at
		FROM inserted i
		JOIN chat.users u ON u.id = i.sender_id
	`, m.ConversationID, m.SenderID, m.Content, m.CreatedAt).Scan(
		&out.ID, &out.ConversationID, &out.SenderID, &out.Sender.Username, &out.Content, &out.CreatedAt,
	)
	if isPgError(err, pgForeignKeyViolation) {
		return nil, chat.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	out.Sender.ID = out.SenderID
	return &out, nil
}

func (r *PgChatRepository) ListMessages(ctx context.Context, conversationID string, beforeID int64, limit int) ([]chat.Message, error) {
	if !validConversationID(conversationID) {
		return nil, nil
	}
	if limit <= 0 {
		return nil, chat.ErrInvalidLimit
	}
	rows, err := r.db.Query(ctx, `
		SELECT m.id, m.conversation_id::text, m.sender_id, u.username, m.content, m.created_at
		FROM chat.message m
		JOIN chat.users u ON u.id = m.sender_id
		WHERE m.conversation_id = $1::uuid
		  AND ($2::bigint = 0 OR m.id < $2)
		ORDER BY m.id DESC
		LIMIT $3
	`, conversationID, beforeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]chat.Message, 0, limit)
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Sender.Username, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Sender.ID = msg.SenderID
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

// ListUserConversations reads the summaries and the participant lists from one
// repeatable-read snapshot so both halves agree.
func (r *PgChatRepository) ListUserConversations(ctx context.Context, userID int64) ([]chat.ConversationSummary, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if r.inTx {
		return listUserConversations(ctx, r.db, userID)
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	summaries, err := listUserConversations(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	return summaries, tx.Commit(ctx)
}

func listUserConversations(ctx context.Context, db DBTX, userID int64) ([]chat.ConversationSummary, error) {
	rows, err := db.Query(ctx, `
		SELECT c.id::text, c.is_group, c.updated_at,
		       lm.id, lm.content, lm.created_at, lm.sender_id, lm.username
		FROM chat.participant me
		JOIN chat.conversation c ON c.id = me.conversation_id
		LEFT JOIN LATERAL (
			SELECT m.id, m.content, m.created_at, m.sender_id, u.username
			FROM chat.message m
			JOIN chat.users u ON u.id = m.sender_id
			WHERE m.conversation_id = c.id
			ORDER BY m.id DESC
			LIMIT 1
		) lm ON TRUE
		WHERE me.user_id = $1
		ORDER BY c.updated_at DESC, c.created_at DESC, c.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]chat.ConversationSummary, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			s         chat.ConversationSummary
			msgID     *int64
			content   *string
			createdAt *time.Time
			senderID  *int64
			username  *string
		)
		if err := rows.Scan(&s.ConversationID, &s.IsGroup, &s.UpdatedAt, &msgID, &content, &createdAt, &senderID, &username); err != nil {
			return nil, err
		}
		if msgID != nil && content != nil && createdAt != nil && senderID != nil && username != nil {
			s.LastMessage = &chat.LastMessage{
				ID:        *msgID,
				Content:   *content,
				CreatedAt: *createdAt,
				Sender:    chat.User{ID: *senderID, Username: *username},
			}
		}
		s.Participants = make([]chat.User, 0, 2)
		index[s.ConversationID] = len(summaries)
		summaries = append(summaries, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	rows.Close()

	memberRows, err := db.Query(ctx, `
		SELECT p.conversation_id::text, u.id, u.username
		FROM chat.participant me
		JOIN chat.participant p ON p.conversation_id = me.conversation_id
		JOIN chat.users u ON u.id = p.user_id
		WHERE me.user_id = $1
		ORDER BY p.joined_at, p.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var (
			conversationID string
			u              chat.User
		)
		if err := memberRows.Scan(&conversationID, &u.ID, &u.Username); err != nil {
			return nil, err
		}
		if i, ok := index[conversationID]; ok {
			summaries[i].Participants = append(summaries[i].Participants, u)
		}
	}
	if memberRows.Err() != nil {
		return nil, memberRows.Err()
	}
	return summaries, nil
}

func (r *PgChatRepository) FindUser(ctx context.Context, userID int64) (*chat.User, error) {
	var u chat.User
	err := r.db.QueryRow(ctx, `
		SELECT id, username
		FROM chat.users
		WHERE id = $1
	`, userID).Scan(&u.ID, &u.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}
	return &u, nil
}

func validConversationID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
