package service

import (
	"context"
	"errors"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Jame-iro/agrolink-backend/internal/model"
	"github.com/Jame-iro/agrolink-backend/internal/store"
)

// UserKey is a polymorphic user identifier. Callers pass either an internal
// ObjectID or a Telegram id; the syntax of the value decides which lookup
// runs, exactly one path per key, never trial-and-error across both.
type UserKey struct {
	oid        primitive.ObjectID
	telegramID int64
	byObjectID bool
}

func ObjectIDKey(id primitive.ObjectID) UserKey {
	return UserKey{oid: id, byObjectID: true}
}

func TelegramKey(id int64) UserKey {
	return UserKey{telegramID: id}
}

// ParseUserKey sniffs the identifier format: a 24-char hex string is an
// internal id, a numeric string is a Telegram id.
func ParseUserKey(s string) (UserKey, error) {
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return ObjectIDKey(oid), nil
	}
	if tg, err := strconv.ParseInt(s, 10, 64); err == nil {
		return TelegramKey(tg), nil
	}
	return UserKey{}, E(KindValidation, "Invalid user identifier")
}

// Directory resolves users across both identifier schemes and owns user
// provisioning from login assertions.
type Directory interface {
	Resolve(ctx context.Context, key UserKey) (*model.User, error)
	UpsertFromLogin(ctx context.Context, claim *Claim) (*model.User, error)
	SetRole(ctx context.Context, telegramID int64, role model.Role) (*model.User, error)
}

type directory struct {
	users store.Users
	log   *zap.Logger
}

func NewDirectory(users store.Users, log *zap.Logger) Directory {
	return &directory{users: users, log: log}
}

func (d *directory) Resolve(ctx context.Context, key UserKey) (*model.User, error) {
	var (
		u   *model.User
		err error
	)
	if key.byObjectID {
		u, err = d.users.ByID(ctx, key.oid)
	} else {
		u, err = d.users.ByTelegramID(ctx, key.telegramID)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, E(KindNotFound, "User not found")
	}
	if err != nil {
		return nil, Wrap("Failed to resolve user", err)
	}
	return u, nil
}

func (d *directory) UpsertFromLogin(ctx context.Context, claim *Claim) (*model.User, error) {
	u, err := d.users.ByTelegramID(ctx, claim.TelegramID)
	if errors.Is(err, store.ErrNotFound) {
		u = &model.User{
			TelegramID: claim.TelegramID,
			FirstName:  claim.FirstName,
			Username:   claim.Username,
			Role:       model.RoleConsumer,
		}
		if err := d.users.Create(ctx, u); err != nil {
			return nil, Wrap("Failed to create user", err)
		}
		d.log.Info("user created", zap.Int64("telegramId", u.TelegramID))
		return u, nil
	}
	if err != nil {
		return nil, Wrap("Failed to look up user", err)
	}

	// Refresh display fields only; role survives every login.
	u.FirstName = claim.FirstName
	u.Username = claim.Username
	if err := d.users.Update(ctx, u); err != nil {
		return nil, Wrap("Failed to update user", err)
	}
	return u, nil
}

func (d *directory) SetRole(ctx context.Context, telegramID int64, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, E(KindValidation, "Invalid role")
	}
	u, err := d.users.SetRole(ctx, telegramID, role)
	if errors.Is(err, store.ErrNotFound) {
		return nil, E(KindNotFound, "User not found")
	}
	if err != nil {
		return nil, Wrap("Failed to update role", err)
	}
	d.log.Info("role updated", zap.Int64("telegramId", telegramID), zap.String("role", string(role)))
	return u, nil
}
