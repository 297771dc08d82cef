//go:build integration

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kyberchat/kyberchat/pkg/models"
)

// createTestStore creates an in-memory SQLite store for testing.
func createTestStore(t *testing.T) *GORMStore {
	t.Helper()
	store, err := New(&Config{
		Type: DatabaseTypeSQLite,
		SQLite: SQLiteConfig{
			Path: ":memory:",
		},
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return store
}

// createTestUser creates a user with a per-user public key.
func createTestUser(t *testing.T, s *GORMStore, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "hashed-password",
		PublicKey:    "pk-" + username,
	}
	if _, err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// testWraps builds one wrap per user with recognisable material.
func testWraps(version int, users ...*models.User) []models.KeyWrap {
	wraps := make([]models.KeyWrap, 0, len(users))
	for _, u := range users {
		wraps = append(wraps, models.KeyWrap{
			UserID:       u.ID,
			EncryptedKey: fmt.Sprintf("wrap-v%d-u%d", version, u.ID),
		})
	}
	return wraps
}

// ledgerVersions returns the distinct key versions present for a room.
func ledgerVersions(t *testing.T, s *GORMStore, roomID uint) map[int]bool {
	t.Helper()
	keys, err := s.GetRoomKeys(context.Background(), roomID)
	if err != nil {
		t.Fatalf("failed to read ledger: %v", err)
	}
	versions := make(map[int]bool)
	for _, k := range keys {
		versions[k.KeyVersion] = true
	}
	return versions
}

// ledgerUsersAt returns the user ids holding a wrap at the given version.
func ledgerUsersAt(t *testing.T, s *GORMStore, roomID uint, version int) map[uint]bool {
	t.Helper()
	keys, err := s.GetRoomKeys(context.Background(), roomID)
	if err != nil {
		t.Fatalf("failed to read ledger: %v", err)
	}
	users := make(map[uint]bool)
	for _, k := range keys {
		if k.KeyVersion == version {
			users[k.UserID] = true
		}
	}
	return users
}

func TestNew(t *testing.T) {
	t.Run("default config uses sqlite", func(t *testing.T) {
		config := &Config{}
		config.ApplyDefaults()

		if config.Type != DatabaseTypeSQLite {
			t.Errorf("expected SQLite, got %s", config.Type)
		}
	})

	t.Run("invalid config returns error", func(t *testing.T) {
		config := &Config{
			Type: "invalid",
		}
		_, err := New(config)
		if err == nil {
			t.Error("expected error for invalid config")
		}
	})

	t.Run("creates in-memory store", func(t *testing.T) {
		store := createTestStore(t)
		defer store.Close()

		if err := store.Healthcheck(context.Background()); err != nil {
			t.Errorf("healthcheck failed: %v", err)
		}
	})
}

func TestUserOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	t.Run("create user", func(t *testing.T) {
		user := &models.User{
			Username:     "alice",
			PasswordHash: "hashed-password",
			PublicKey:    "pk-alice",
		}

		id, err := store.CreateUser(ctx, user)
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if id == 0 {
			t.Error("expected non-zero user ID")
		}
		if !user.IsActive {
			t.Error("expected new user to be active")
		}
	})

	t.Run("duplicate user fails", func(t *testing.T) {
		user := &models.User{
			Username:     "alice",
			PasswordHash: "hashed-password",
			PublicKey:    "pk-other",
		}

		_, err := store.CreateUser(ctx, user)
		if !errors.Is(err, models.ErrDuplicateUser) {
			t.Errorf("expected ErrDuplicateUser, got %v", err)
		}
	})

	t.Run("get user", func(t *testing.T) {
		user, err := store.GetUser(ctx, "alice")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if user.Username != "alice" {
			t.Errorf("expected username 'alice', got %q", user.Username)
		}
		if user.PublicKey != "pk-alice" {
			t.Errorf("expected public key 'pk-alice', got %q", user.PublicKey)
		}
	})

	t.Run("get user by id", func(t *testing.T) {
		byName, _ := store.GetUser(ctx, "alice")
		user, err := store.GetUserByID(ctx, byName.ID)
		if err != nil {
			t.Fatalf("failed to get user by id: %v", err)
		}
		if user.Username != "alice" {
			t.Errorf("expected username 'alice', got %q", user.Username)
		}
	})

	t.Run("get user not found", func(t *testing.T) {
		_, err := store.GetUser(ctx, "nonexistent")
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("get user by id not found", func(t *testing.T) {
		_, err := store.GetUserByID(ctx, 99999)
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("list users", func(t *testing.T) {
		users, err := store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 1 {
			t.Errorf("expected 1 user, got %d", len(users))
		}
	})

	t.Run("set user active", func(t *testing.T) {
		if err := store.SetUserActive(ctx, "alice", false); err != nil {
			t.Fatalf("failed to disable user: %v", err)
		}
		user, _ := store.GetUser(ctx, "alice")
		if user.IsActive {
			t.Error("expected user to be inactive")
		}

		if err := store.SetUserActive(ctx, "alice", true); err != nil {
			t.Fatalf("failed to enable user: %v", err)
		}
	})

	t.Run("set active on nonexistent user fails", func(t *testing.T) {
		err := store.SetUserActive(ctx, "nonexistent", false)
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestSearchUsers(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	byName := make(map[string]*models.User)
	for _, name := range []string{"alice", "Alistair", "bob", "carol", "malice"} {
		byName[name] = createTestUser(t, store, name)
	}

	t.Run("case insensitive substring match", func(t *testing.T) {
		users, total, err := store.SearchUsers(ctx, "ali", 0, 1, 10)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if total != 3 {
			t.Errorf("expected 3 matches, got %d", total)
		}
		if len(users) != 3 {
			t.Errorf("expected 3 users in page, got %d", len(users))
		}
	})

	t.Run("excludes the given user", func(t *testing.T) {
		users, total, err := store.SearchUsers(ctx, "ali", byName["alice"].ID, 1, 10)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if total != 2 {
			t.Errorf("expected 2 matches excluding alice, got %d", total)
		}
		for _, u := range users {
			if u.ID == byName["alice"].ID {
				t.Errorf("excluded user %d present in results", u.ID)
			}
		}
	})

	t.Run("pagination", func(t *testing.T) {
		users, total, err := store.SearchUsers(ctx, "ali", 0, 2, 2)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if total != 3 {
			t.Errorf("expected total 3, got %d", total)
		}
		if len(users) != 1 {
			t.Errorf("expected 1 user on second page, got %d", len(users))
		}
	})

	t.Run("no matches", func(t *testing.T) {
		users, total, err := store.SearchUsers(ctx, "zzz", 0, 1, 10)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if total != 0 || len(users) != 0 {
			t.Errorf("expected no matches, got total=%d len=%d", total, len(users))
		}
	})
}

func TestValidateCredentials(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Username:     "alice",
		PasswordHash: string(hash),
		PublicKey:    "pk-alice",
	}
	if _, err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		got, err := store.ValidateCredentials(ctx, "alice", "s3cret-pass")
		if err != nil {
			t.Fatalf("expected valid credentials, got %v", err)
		}
		if got.Username != "alice" {
			t.Errorf("expected alice, got %q", got.Username)
		}
	})

	t.Run("invalid password", func(t *testing.T) {
		_, err := store.ValidateCredentials(ctx, "alice", "wrong")
		if !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("nonexistent user returns invalid credentials", func(t *testing.T) {
		_, err := store.ValidateCredentials(ctx, "nobody", "s3cret-pass")
		if !errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("disabled user", func(t *testing.T) {
		if err := store.SetUserActive(ctx, "alice", false); err != nil {
			t.Fatalf("failed to disable user: %v", err)
		}
		_, err := store.ValidateCredentials(ctx, "alice", "s3cret-pass")
		if !errors.Is(err, models.ErrUserDisabled) {
			t.Errorf("expected ErrUserDisabled, got %v", err)
		}
	})
}

func TestRefreshTokenOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")

	t.Run("save and get", func(t *testing.T) {
		token := &models.RefreshToken{
			JTI:       "jti-1",
			UserID:    alice.ID,
			ExpiresAt: time.Now().Add(time.Hour),
		}
		if err := store.SaveRefreshToken(ctx, token); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		got, err := store.GetRefreshToken(ctx, "jti-1")
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if got.UserID != alice.ID {
			t.Errorf("expected user %d, got %d", alice.ID, got.UserID)
		}
		if !got.IsUsable() {
			t.Error("expected fresh token to be usable")
		}
	})

	t.Run("get not found", func(t *testing.T) {
		_, err := store.GetRefreshToken(ctx, "missing")
		if !errors.Is(err, models.ErrTokenNotFound) {
			t.Errorf("expected ErrTokenNotFound, got %v", err)
		}
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		if err := store.RevokeRefreshToken(ctx, "jti-1"); err != nil {
			t.Fatalf("failed to revoke token: %v", err)
		}
		if err := store.RevokeRefreshToken(ctx, "jti-1"); err != nil {
			t.Fatalf("second revoke should not fail: %v", err)
		}
		if err := store.RevokeRefreshToken(ctx, "missing"); err != nil {
			t.Fatalf("revoking unknown token should not fail: %v", err)
		}

		got, _ := store.GetRefreshToken(ctx, "jti-1")
		if !got.Revoked {
			t.Error("expected token to be revoked")
		}
	})

	t.Run("purge expired", func(t *testing.T) {
		expired := &models.RefreshToken{
			JTI:       "jti-old",
			UserID:    alice.ID,
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		if err := store.SaveRefreshToken(ctx, expired); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		n, err := store.PurgeExpiredTokens(ctx)
		if err != nil {
			t.Fatalf("failed to purge tokens: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 purged token, got %d", n)
		}

		if _, err := store.GetRefreshToken(ctx, "jti-old"); !errors.Is(err, models.ErrTokenNotFound) {
			t.Errorf("expected purged token to be gone, got %v", err)
		}
		if _, err := store.GetRefreshToken(ctx, "jti-1"); err != nil {
			t.Errorf("expected unexpired token to survive, got %v", err)
		}
	})
}

func TestCreateRoom(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	t.Run("solo room with self wrap", func(t *testing.T) {
		room, err := store.CreateRoom(ctx, CreateRoomParams{
			CreatorID: alice.ID,
			Name:      "notes",
			Wraps:     testWraps(1, alice),
		})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}
		if room.CurrentKeyVersion != 1 {
			t.Errorf("expected version 1, got %d", room.CurrentKeyVersion)
		}
		if room.IsGroup {
			t.Error("expected solo room to not be a group")
		}
		if len(room.Participants) != 1 || room.Participants[0].ID != alice.ID {
			t.Errorf("expected exactly the creator as participant, got %v", room.ParticipantIDs())
		}

		holders := ledgerUsersAt(t, store, room.ID, 1)
		if len(holders) != 1 || !holders[alice.ID] {
			t.Errorf("expected exactly the creator in the ledger, got %v", holders)
		}
	})

	t.Run("creator listed in participant ids is not duplicated", func(t *testing.T) {
		room, err := store.CreateRoom(ctx, CreateRoomParams{
			CreatorID:      alice.ID,
			Name:           "pair",
			ParticipantIDs: []uint{alice.ID, bob.ID},
			Wraps:          testWraps(1, alice, bob),
		})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}
		if len(room.Participants) != 2 {
			t.Errorf("expected 2 participants, got %d", len(room.Participants))
		}
		if !room.HasParticipant(alice.ID) || !room.HasParticipant(bob.ID) {
			t.Errorf("expected alice and bob, got %v", room.ParticipantIDs())
		}
	})

	t.Run("unknown invitees are skipped", func(t *testing.T) {
		room, err := store.CreateRoom(ctx, CreateRoomParams{
			CreatorID:      alice.ID,
			Name:           "ghosts",
			ParticipantIDs: []uint{bob.ID, 99999},
			Wraps:          testWraps(1, alice, bob),
		})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}
		if len(room.Participants) != 2 {
			t.Errorf("expected 2 participants, got %d", len(room.Participants))
		}
	})

	t.Run("wrap for a non participant rejects the create", func(t *testing.T) {
		carol := createTestUser(t, store, "carol")
		_, err := store.CreateRoom(ctx, CreateRoomParams{
			CreatorID:      alice.ID,
			Name:           "strays",
			ParticipantIDs: []uint{bob.ID},
			Wraps:          testWraps(1, alice, bob, carol),
		})
		if !errors.Is(err, models.ErrIncompleteWrapSet) {
			t.Errorf("expected ErrIncompleteWrapSet, got %v", err)
		}
	})

	t.Run("missing wrap rejects the create", func(t *testing.T) {
		_, err := store.CreateRoom(ctx, CreateRoomParams{
			CreatorID:      alice.ID,
			Name:           "partial",
			ParticipantIDs: []uint{bob.ID},
			Wraps:          testWraps(1, alice),
		})
		if !errors.Is(err, models.ErrIncompleteWrapSet) {
			t.Errorf("expected ErrIncompleteWrapSet, got %v", err)
		}
	})

	t.Run("room without wraps has an empty ledger", func(t *testing.T) {
		room, err := store.CreateRoom(ctx, CreateRoomParams{
			CreatorID:      alice.ID,
			Name:           "plain",
			ParticipantIDs: []uint{bob.ID},
		})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}
		if holders := ledgerUsersAt(t, store, room.ID, 1); len(holders) != 0 {
			t.Errorf("expected empty ledger, got %v", holders)
		}
	})

	t.Run("group flag inferred from invitee count", func(t *testing.T) {
		carol, _ := store.GetUser(ctx, "carol")
		room, err := store.CreateRoom(ctx, CreateRoomParams{
			CreatorID:      alice.ID,
			Name:           "trio",
			ParticipantIDs: []uint{bob.ID, carol.ID},
			Wraps:          testWraps(1, alice, bob, carol),
		})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}
		if !room.IsGroup {
			t.Error("expected room with 2 invitees to be a group")
		}
	})

	t.Run("explicit group flag wins", func(t *testing.T) {
		isGroup := true
		room, err := store.CreateRoom(ctx, CreateRoomParams{
			CreatorID:      alice.ID,
			Name:           "explicit",
			ParticipantIDs: []uint{bob.ID},
			IsGroup:        &isGroup,
			Wraps:          testWraps(1, alice, bob),
		})
		if err != nil {
			t.Fatalf("failed to create room: %v", err)
		}
		if !room.IsGroup {
			t.Error("expected explicit group flag to win")
		}
	})

	t.Run("unknown creator fails", func(t *testing.T) {
		_, err := store.CreateRoom(ctx, CreateRoomParams{
			CreatorID: 99999,
			Name:      "orphan",
		})
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestInviteToRoom(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	carol := createTestUser(t, store, "carol")

	room, err := store.CreateRoom(ctx, CreateRoomParams{
		CreatorID:      alice.ID,
		Name:           "pair",
		ParticipantIDs: []uint{bob.ID},
		Wraps:          testWraps(1, alice, bob),
	})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	t.Run("incomplete wrap set rejected with no state change", func(t *testing.T) {
		// Missing bob's wrap.
		_, err := store.InviteToRoom(ctx, InviteParams{
			RoomID:         room.ID,
			CallerID:       alice.ID,
			InvitedUserIDs: []uint{carol.ID},
			Wraps:          testWraps(2, alice, carol),
		})
		if !errors.Is(err, models.ErrIncompleteWrapSet) {
			t.Fatalf("expected ErrIncompleteWrapSet, got %v", err)
		}

		got, _ := store.GetRoom(ctx, room.ID)
		if got.CurrentKeyVersion != 1 {
			t.Errorf("expected version unchanged at 1, got %d", got.CurrentKeyVersion)
		}
		if got.HasParticipant(carol.ID) {
			t.Error("expected carol to not be a participant after rejected invite")
		}
		if versions := ledgerVersions(t, store, room.ID); versions[2] {
			t.Error("expected no version 2 ledger entries after rejected invite")
		}

		msgs, _, _ := store.GetRoomMessages(ctx, room.ID, 10, 0)
		if len(msgs) != 0 {
			t.Errorf("expected no system message after rejected invite, got %d messages", len(msgs))
		}
	})

	t.Run("extra wrap rejected", func(t *testing.T) {
		dave := createTestUser(t, store, "dave")
		_, err := store.InviteToRoom(ctx, InviteParams{
			RoomID:         room.ID,
			CallerID:       alice.ID,
			InvitedUserIDs: []uint{carol.ID},
			Wraps:          testWraps(2, alice, bob, carol, dave),
		})
		if !errors.Is(err, models.ErrIncompleteWrapSet) {
			t.Errorf("expected ErrIncompleteWrapSet for extra wrap, got %v", err)
		}
	})

	t.Run("non participant cannot invite", func(t *testing.T) {
		_, err := store.InviteToRoom(ctx, InviteParams{
			RoomID:         room.ID,
			CallerID:       carol.ID,
			InvitedUserIDs: []uint{carol.ID},
			Wraps:          testWraps(2, alice, bob, carol),
		})
		if !errors.Is(err, models.ErrNotParticipant) {
			t.Errorf("expected ErrNotParticipant, got %v", err)
		}
	})

	t.Run("room not found", func(t *testing.T) {
		_, err := store.InviteToRoom(ctx, InviteParams{
			RoomID:         99999,
			CallerID:       alice.ID,
			InvitedUserIDs: []uint{carol.ID},
		})
		if !errors.Is(err, models.ErrRoomNotFound) {
			t.Errorf("expected ErrRoomNotFound, got %v", err)
		}
	})

	t.Run("successful invite rotates to version 2", func(t *testing.T) {
		result, err := store.InviteToRoom(ctx, InviteParams{
			RoomID:         room.ID,
			CallerID:       alice.ID,
			InvitedUserIDs: []uint{carol.ID},
			Wraps:          testWraps(2, alice, bob, carol),
		})
		if err != nil {
			t.Fatalf("failed to invite: %v", err)
		}
		if result.NewVersion != 2 {
			t.Errorf("expected new version 2, got %d", result.NewVersion)
		}
		if len(result.NewUsers) != 1 || result.NewUsers[0].ID != carol.ID {
			t.Errorf("expected carol as the new user, got %v", result.NewUsers)
		}
		if !result.Room.HasParticipant(carol.ID) {
			t.Error("expected carol in the returned room")
		}
	})
}

func TestInviteLedgerState(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	carol := createTestUser(t, store, "carol")

	room, err := store.CreateRoom(ctx, CreateRoomParams{
		CreatorID:      alice.ID,
		Name:           "ledger",
		ParticipantIDs: []uint{bob.ID},
		Wraps:          testWraps(1, alice, bob),
	})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	result, err := store.InviteToRoom(ctx, InviteParams{
		RoomID:         room.ID,
		CallerID:       alice.ID,
		InvitedUserIDs: []uint{carol.ID},
		Wraps:          testWraps(2, alice, bob, carol),
	})
	if err != nil {
		t.Fatalf("failed to invite: %v", err)
	}

	t.Run("previous version entries are revoked", func(t *testing.T) {
		keys, err := store.GetRoomKeys(ctx, room.ID)
		if err != nil {
			t.Fatalf("failed to read ledger: %v", err)
		}
		for _, k := range keys {
			switch k.KeyVersion {
			case 1:
				if !k.IsRevoked() {
					t.Errorf("expected version 1 entry for user %d to be revoked", k.UserID)
				}
			case 2:
				if k.IsRevoked() {
					t.Errorf("expected version 2 entry for user %d to be live", k.UserID)
				}
			default:
				t.Errorf("unexpected ledger version %d", k.KeyVersion)
			}
		}
	})

	t.Run("new version covers exactly the participants", func(t *testing.T) {
		holders := ledgerUsersAt(t, store, room.ID, 2)
		want := map[uint]bool{alice.ID: true, bob.ID: true, carol.ID: true}
		if len(holders) != len(want) {
			t.Errorf("expected %d holders, got %d", len(want), len(holders))
		}
		for id := range want {
			if !holders[id] {
				t.Errorf("expected user %d to hold a version 2 wrap", id)
			}
		}
	})

	t.Run("invitee has no entry at old versions", func(t *testing.T) {
		keys, _ := store.GetRoomKeysForUser(ctx, room.ID, carol.ID)
		if len(keys) != 1 || keys[0].KeyVersion != 2 {
			t.Errorf("expected carol to hold only a version 2 wrap, got %v", keys)
		}
	})

	t.Run("system message appended at new version", func(t *testing.T) {
		if result.SystemMessage == nil {
			t.Fatal("expected a system message")
		}
		if result.SystemMessage.KeyVersion != 2 {
			t.Errorf("expected system message at version 2, got %d", result.SystemMessage.KeyVersion)
		}
		if !result.SystemMessage.IsSystem() {
			t.Error("expected message_type system")
		}
		if result.SystemMessage.SenderID != nil {
			t.Error("expected nil sender on system message")
		}

		msgs, _, err := store.GetRoomMessages(ctx, room.ID, 10, 0)
		if err != nil {
			t.Fatalf("failed to read messages: %v", err)
		}
		if len(msgs) != 1 {
			t.Fatalf("expected 1 stored message, got %d", len(msgs))
		}
	})

	t.Run("all invitees already present", func(t *testing.T) {
		_, err := store.InviteToRoom(ctx, InviteParams{
			RoomID:         room.ID,
			CallerID:       alice.ID,
			InvitedUserIDs: []uint{bob.ID, carol.ID},
			Wraps:          testWraps(3, alice, bob, carol),
		})
		if !errors.Is(err, models.ErrNoNewUsers) {
			t.Errorf("expected ErrNoNewUsers, got %v", err)
		}

		got, _ := store.GetRoom(ctx, room.ID)
		if got.CurrentKeyVersion != 2 {
			t.Errorf("expected version unchanged at 2, got %d", got.CurrentKeyVersion)
		}
	})

	t.Run("expected version mismatch", func(t *testing.T) {
		dave := createTestUser(t, store, "dave")
		_, err := store.InviteToRoom(ctx, InviteParams{
			RoomID:          room.ID,
			CallerID:        alice.ID,
			InvitedUserIDs:  []uint{dave.ID},
			Wraps:           testWraps(2, alice, bob, carol, dave),
			ExpectedVersion: 2, // room is already at 2; next must be 3
		})
		if !errors.Is(err, models.ErrVersionConflict) {
			t.Errorf("expected ErrVersionConflict, got %v", err)
		}
	})
}

func TestLeaveRoom(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	carol := createTestUser(t, store, "carol")

	room, err := store.CreateRoom(ctx, CreateRoomParams{
		CreatorID:      alice.ID,
		Name:           "trio",
		ParticipantIDs: []uint{bob.ID, carol.ID},
		Wraps:          testWraps(1, alice, bob, carol),
	})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}
	// Advance the ledger so the leaver holds entries at two versions.
	if _, err := store.RotateRoomKey(ctx, RotateParams{
		RoomID:   room.ID,
		CallerID: alice.ID,
		Wraps:    testWraps(2, alice, bob, carol),
	}); err != nil {
		t.Fatalf("failed to rotate: %v", err)
	}

	t.Run("non participant cannot leave", func(t *testing.T) {
		dave := createTestUser(t, store, "dave")
		_, err := store.LeaveRoom(ctx, room.ID, dave.ID)
		if !errors.Is(err, models.ErrNotParticipant) {
			t.Errorf("expected ErrNotParticipant, got %v", err)
		}
	})

	t.Run("leave purges all leaver entries and marks rotation pending", func(t *testing.T) {
		result, err := store.LeaveRoom(ctx, room.ID, carol.ID)
		if err != nil {
			t.Fatalf("failed to leave: %v", err)
		}
		if result.RoomDeleted {
			t.Fatal("expected room to survive with 2 members")
		}
		if result.Room.HasParticipant(carol.ID) {
			t.Error("expected carol removed from participants")
		}
		if !result.Room.RotationPending {
			t.Error("expected rotation_pending after leave")
		}
		if result.Room.CurrentKeyVersion != 2 {
			t.Errorf("expected version unchanged at 2, got %d", result.Room.CurrentKeyVersion)
		}

		keys, _ := store.GetRoomKeysForUser(ctx, room.ID, carol.ID)
		if len(keys) != 0 {
			t.Errorf("expected all of carol's ledger entries purged, got %d", len(keys))
		}

		// Other members keep their history.
		keys, _ = store.GetRoomKeysForUser(ctx, room.ID, alice.ID)
		if len(keys) != 2 {
			t.Errorf("expected alice to keep 2 entries, got %d", len(keys))
		}

		if result.SystemMessage == nil {
			t.Fatal("expected a departure system message")
		}
		if result.SystemMessage.KeyVersion != 2 {
			t.Errorf("expected system message at current version 2, got %d", result.SystemMessage.KeyVersion)
		}
	})

	t.Run("second leave fails", func(t *testing.T) {
		_, err := store.LeaveRoom(ctx, room.ID, carol.ID)
		if !errors.Is(err, models.ErrNotParticipant) {
			t.Errorf("expected ErrNotParticipant, got %v", err)
		}
	})
}

func TestLeaveEmptiesRoom(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")

	room, err := store.CreateRoom(ctx, CreateRoomParams{
		CreatorID: alice.ID,
		Name:      "solo",
		Wraps:     testWraps(1, alice),
	})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	msg := &models.Message{
		RoomID:           room.ID,
		SenderID:         &alice.ID,
		MessageType:      models.MessageTypeUser,
		EncryptedContent: "Y2lwaGVydGV4dA==",
		IV:               "aXYtMTIzNDU2Nzg5MDEy",
		KeyVersion:       1,
	}
	if err := store.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("failed to append message: %v", err)
	}

	result, err := store.LeaveRoom(ctx, room.ID, alice.ID)
	if err != nil {
		t.Fatalf("failed to leave: %v", err)
	}
	if !result.RoomDeleted {
		t.Fatal("expected room deletion when last participant leaves")
	}

	if _, err := store.GetRoom(ctx, room.ID); !errors.Is(err, models.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound after deletion, got %v", err)
	}

	msgs, _, err := store.GetRoomMessages(ctx, room.ID, 10, 0)
	if err != nil {
		t.Fatalf("failed to read messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected messages cascaded away, got %d", len(msgs))
	}

	keys, err := store.GetRoomKeys(ctx, room.ID)
	if err != nil {
		t.Fatalf("failed to read ledger: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected ledger cascaded away, got %d entries", len(keys))
	}
}

func TestRotateRoomKey(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	carol := createTestUser(t, store, "carol")

	room, err := store.CreateRoom(ctx, CreateRoomParams{
		CreatorID:      alice.ID,
		Name:           "trio",
		ParticipantIDs: []uint{bob.ID, carol.ID},
		Wraps:          testWraps(1, alice, bob, carol),
	})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	t.Run("non participant cannot rotate", func(t *testing.T) {
		dave := createTestUser(t, store, "dave")
		_, err := store.RotateRoomKey(ctx, RotateParams{
			RoomID:   room.ID,
			CallerID: dave.ID,
			Wraps:    testWraps(2, alice, bob, carol),
		})
		if !errors.Is(err, models.ErrNotParticipant) {
			t.Errorf("expected ErrNotParticipant, got %v", err)
		}
	})

	t.Run("incomplete wrap set rejected with no state change", func(t *testing.T) {
		_, err := store.RotateRoomKey(ctx, RotateParams{
			RoomID:   room.ID,
			CallerID: alice.ID,
			Wraps:    testWraps(2, alice, bob), // missing carol
		})
		if !errors.Is(err, models.ErrIncompleteWrapSet) {
			t.Fatalf("expected ErrIncompleteWrapSet, got %v", err)
		}

		got, _ := store.GetRoom(ctx, room.ID)
		if got.CurrentKeyVersion != 1 {
			t.Errorf("expected version unchanged at 1, got %d", got.CurrentKeyVersion)
		}
		if versions := ledgerVersions(t, store, room.ID); versions[2] {
			t.Error("expected no version 2 entries after rejected rotation")
		}
	})

	t.Run("successful rotation", func(t *testing.T) {
		result, err := store.RotateRoomKey(ctx, RotateParams{
			RoomID:   room.ID,
			CallerID: alice.ID,
			Wraps:    testWraps(2, alice, bob, carol),
		})
		if err != nil {
			t.Fatalf("failed to rotate: %v", err)
		}
		if result.NewVersion != 2 {
			t.Errorf("expected version 2, got %d", result.NewVersion)
		}
		if result.Room.RotationPending {
			t.Error("expected rotation_pending cleared")
		}

		holders := ledgerUsersAt(t, store, room.ID, 2)
		if len(holders) != 3 {
			t.Errorf("expected 3 holders at version 2, got %d", len(holders))
		}

		keys, _ := store.GetRoomKeysForUser(ctx, room.ID, alice.ID)
		for _, k := range keys {
			if k.KeyVersion == 1 && !k.IsRevoked() {
				t.Error("expected version 1 entry revoked after rotation")
			}
		}
	})

	t.Run("rotation clears pending flag set by leave", func(t *testing.T) {
		if _, err := store.LeaveRoom(ctx, room.ID, carol.ID); err != nil {
			t.Fatalf("failed to leave: %v", err)
		}
		got, _ := store.GetRoom(ctx, room.ID)
		if !got.RotationPending {
			t.Fatal("expected rotation_pending after leave")
		}

		result, err := store.RotateRoomKey(ctx, RotateParams{
			RoomID:   room.ID,
			CallerID: alice.ID,
			Wraps:    testWraps(3, alice, bob),
		})
		if err != nil {
			t.Fatalf("failed to rotate: %v", err)
		}
		if result.Room.RotationPending {
			t.Error("expected rotation_pending cleared after rotation")
		}
		if result.NewVersion != 3 {
			t.Errorf("expected version 3, got %d", result.NewVersion)
		}
	})

	t.Run("stale expected version loses", func(t *testing.T) {
		// Two clients race to install version 4; the second request
		// arrives after the first committed.
		if _, err := store.RotateRoomKey(ctx, RotateParams{
			RoomID:          room.ID,
			CallerID:        alice.ID,
			Wraps:           testWraps(4, alice, bob),
			ExpectedVersion: 4,
		}); err != nil {
			t.Fatalf("first rotation should win: %v", err)
		}

		_, err := store.RotateRoomKey(ctx, RotateParams{
			RoomID:          room.ID,
			CallerID:        bob.ID,
			Wraps:           testWraps(4, alice, bob),
			ExpectedVersion: 4,
		})
		if !errors.Is(err, models.ErrVersionConflict) {
			t.Errorf("expected ErrVersionConflict for the loser, got %v", err)
		}

		got, _ := store.GetRoom(ctx, room.ID)
		if got.CurrentKeyVersion != 4 {
			t.Errorf("expected version 4 after one committed rotation, got %d", got.CurrentKeyVersion)
		}
	})
}

func TestLedgerRoundTrip(t *testing.T) {
	// Leave, re-invite, rotate: the returning user must only hold a wrap at
	// the newest version and their purged entries must stay purged.
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	carol := createTestUser(t, store, "carol")

	room, err := store.CreateRoom(ctx, CreateRoomParams{
		CreatorID:      alice.ID,
		Name:           "round-trip",
		ParticipantIDs: []uint{bob.ID, carol.ID},
		Wraps:          testWraps(1, alice, bob, carol),
	})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	if _, err := store.LeaveRoom(ctx, room.ID, carol.ID); err != nil {
		t.Fatalf("failed to leave: %v", err)
	}
	if _, err := store.RotateRoomKey(ctx, RotateParams{
		RoomID:   room.ID,
		CallerID: alice.ID,
		Wraps:    testWraps(2, alice, bob),
	}); err != nil {
		t.Fatalf("failed to rotate: %v", err)
	}
	if _, err := store.InviteToRoom(ctx, InviteParams{
		RoomID:         room.ID,
		CallerID:       alice.ID,
		InvitedUserIDs: []uint{carol.ID},
		Wraps:          testWraps(3, alice, bob, carol),
	}); err != nil {
		t.Fatalf("failed to re-invite: %v", err)
	}

	keys, err := store.GetRoomKeysForUser(ctx, room.ID, carol.ID)
	if err != nil {
		t.Fatalf("failed to read carol's ledger: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected carol to hold exactly 1 entry, got %d", len(keys))
	}
	if keys[0].KeyVersion != 3 {
		t.Errorf("expected carol's entry at version 3, got %d", keys[0].KeyVersion)
	}
	if keys[0].IsRevoked() {
		t.Error("expected carol's new entry to be live")
	}

	// Contiguity: versions 1..3 all present in the ledger.
	versions := ledgerVersions(t, store, room.ID)
	for v := 1; v <= 3; v++ {
		if !versions[v] {
			t.Errorf("expected ledger version %d to be present", v)
		}
	}
	if len(versions) != 3 {
		t.Errorf("expected exactly versions 1..3, got %v", versions)
	}
}

func TestReplaceOrInsertWrap(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	carol := createTestUser(t, store, "carol")

	// A room created without key material leaves version 1 installed but
	// empty; top-ups then fill it per participant.
	room, err := store.CreateRoom(ctx, CreateRoomParams{
		CreatorID:      alice.ID,
		Name:           "top-up",
		ParticipantIDs: []uint{bob.ID},
	})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	t.Run("fills a hole at the current version", func(t *testing.T) {
		if err := store.ReplaceOrInsertWrap(ctx, room.ID, alice.ID, 1, "wrap-alice-v1"); err != nil {
			t.Fatalf("top-up failed: %v", err)
		}
		keys, err := store.GetRoomKeysForUser(ctx, room.ID, alice.ID)
		if err != nil {
			t.Fatalf("failed to read ledger: %v", err)
		}
		if len(keys) != 1 || keys[0].EncryptedKey != "wrap-alice-v1" {
			t.Fatalf("expected exactly the topped-up entry, got %v", keys)
		}
		if keys[0].IsRevoked() {
			t.Error("expected entry at the current version to be live")
		}
	})

	t.Run("identical resend is a no-op", func(t *testing.T) {
		if err := store.ReplaceOrInsertWrap(ctx, room.ID, alice.ID, 1, "wrap-alice-v1"); err != nil {
			t.Fatalf("resend failed: %v", err)
		}
		keys, _ := store.GetRoomKeysForUser(ctx, room.ID, alice.ID)
		if len(keys) != 1 {
			t.Errorf("expected 1 entry after resend, got %d", len(keys))
		}
	})

	t.Run("different wrap replaces in place", func(t *testing.T) {
		if err := store.ReplaceOrInsertWrap(ctx, room.ID, alice.ID, 1, "wrap-alice-v1b"); err != nil {
			t.Fatalf("replace failed: %v", err)
		}
		keys, _ := store.GetRoomKeysForUser(ctx, room.ID, alice.ID)
		if len(keys) != 1 || keys[0].EncryptedKey != "wrap-alice-v1b" {
			t.Errorf("expected replaced wrap, got %v", keys)
		}
	})

	t.Run("uninstalled version conflicts", func(t *testing.T) {
		err := store.ReplaceOrInsertWrap(ctx, room.ID, alice.ID, 2, "wrap-alice-v2")
		if !errors.Is(err, models.ErrVersionConflict) {
			t.Errorf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("non participant is rejected", func(t *testing.T) {
		err := store.ReplaceOrInsertWrap(ctx, room.ID, carol.ID, 1, "wrap-carol-v1")
		if !errors.Is(err, models.ErrNotParticipant) {
			t.Errorf("expected ErrNotParticipant, got %v", err)
		}
	})

	t.Run("unknown room is rejected", func(t *testing.T) {
		err := store.ReplaceOrInsertWrap(ctx, 99999, alice.ID, 1, "wrap")
		if !errors.Is(err, models.ErrRoomNotFound) {
			t.Errorf("expected ErrRoomNotFound, got %v", err)
		}
	})

	t.Run("top-up at a superseded version arrives revoked", func(t *testing.T) {
		if _, err := store.RotateRoomKey(ctx, RotateParams{
			RoomID:   room.ID,
			CallerID: alice.ID,
			Wraps:    testWraps(2, alice, bob),
		}); err != nil {
			t.Fatalf("failed to rotate: %v", err)
		}

		if err := store.ReplaceOrInsertWrap(ctx, room.ID, bob.ID, 1, "wrap-bob-v1"); err != nil {
			t.Fatalf("late top-up failed: %v", err)
		}
		keys, err := store.GetRoomKeysForUser(ctx, room.ID, bob.ID)
		if err != nil {
			t.Fatalf("failed to read ledger: %v", err)
		}
		if len(keys) != 2 {
			t.Fatalf("expected entries at versions 1 and 2, got %d", len(keys))
		}
		if !keys[0].IsRevoked() {
			t.Error("expected the superseded entry to carry a revocation stamp")
		}
		if keys[1].IsRevoked() {
			t.Error("expected the current entry to be live")
		}
	})
}

func TestMessageOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	room, err := store.CreateRoom(ctx, CreateRoomParams{
		CreatorID:      alice.ID,
		Name:           "chat",
		ParticipantIDs: []uint{bob.ID},
		Wraps:          testWraps(1, alice, bob),
	})
	if err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	userMsg := func(sender *models.User, content string, version int) *models.Message {
		return &models.Message{
			RoomID:           room.ID,
			SenderID:         &sender.ID,
			MessageType:      models.MessageTypeUser,
			EncryptedContent: content,
			IV:               "aXYtMTIzNDU2Nzg5MDEy",
			KeyVersion:       version,
		}
	}

	t.Run("append message", func(t *testing.T) {
		msg := userMsg(alice, "bTE=", 1)
		if err := store.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
		if msg.ID == 0 {
			t.Error("expected assigned message id")
		}
	})

	t.Run("message cannot run ahead of current version", func(t *testing.T) {
		err := store.AppendMessage(ctx, userMsg(alice, "bTI=", 2))
		if !errors.Is(err, models.ErrVersionConflict) {
			t.Errorf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("non participant cannot send", func(t *testing.T) {
		carol := createTestUser(t, store, "carol")
		err := store.AppendMessage(ctx, userMsg(carol, "bTM=", 1))
		if !errors.Is(err, models.ErrNotParticipant) {
			t.Errorf("expected ErrNotParticipant, got %v", err)
		}
	})

	t.Run("unknown room", func(t *testing.T) {
		msg := userMsg(alice, "bTQ=", 1)
		msg.RoomID = 99999
		err := store.AppendMessage(ctx, msg)
		if !errors.Is(err, models.ErrRoomNotFound) {
			t.Errorf("expected ErrRoomNotFound, got %v", err)
		}
	})

	t.Run("history pagination", func(t *testing.T) {
		if err := store.AppendMessage(ctx, userMsg(bob, "bTU=", 1)); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
		if err := store.AppendMessage(ctx, userMsg(alice, "bTY=", 1)); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
		// 3 messages stored now.

		page, hasMore, err := store.GetRoomMessages(ctx, room.ID, 2, 0)
		if err != nil {
			t.Fatalf("failed to read messages: %v", err)
		}
		if len(page) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(page))
		}
		if !hasMore {
			t.Error("expected has_more on a full page")
		}
		// Newest first.
		if page[0].EncryptedContent != "bTY=" {
			t.Errorf("expected newest message first, got %q", page[0].EncryptedContent)
		}
		if page[0].Sender == nil || page[0].Sender.Username != "alice" {
			t.Error("expected sender preloaded")
		}

		page, hasMore, err = store.GetRoomMessages(ctx, room.ID, 2, 2)
		if err != nil {
			t.Fatalf("failed to read messages: %v", err)
		}
		if len(page) != 1 {
			t.Errorf("expected 1 message on last page, got %d", len(page))
		}
		if hasMore {
			t.Error("expected has_more false on a short page")
		}
	})

	t.Run("zero limit returns empty page", func(t *testing.T) {
		page, hasMore, err := store.GetRoomMessages(ctx, room.ID, 0, 0)
		if err != nil {
			t.Fatalf("failed to read messages: %v", err)
		}
		if len(page) != 0 {
			t.Errorf("expected empty page, got %d", len(page))
		}
		if hasMore {
			t.Error("expected has_more false for zero limit")
		}
	})

	t.Run("mark delivered", func(t *testing.T) {
		page, _, _ := store.GetRoomMessages(ctx, room.ID, 10, 0)
		ids := make([]uint, 0, len(page))
		for _, m := range page {
			ids = append(ids, m.ID)
		}
		if err := store.MarkMessagesDelivered(ctx, ids); err != nil {
			t.Fatalf("failed to mark delivered: %v", err)
		}

		page, _, _ = store.GetRoomMessages(ctx, room.ID, 10, 0)
		for _, m := range page {
			if !m.Delivered {
				t.Errorf("expected message %d delivered", m.ID)
			}
		}

		if err := store.MarkMessagesDelivered(ctx, nil); err != nil {
			t.Errorf("empty id list should be a no-op, got %v", err)
		}
	})
}

func TestListRoomsForUser(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	for i := 0; i < 2; i++ {
		if _, err := store.CreateRoom(ctx, CreateRoomParams{
			CreatorID:      alice.ID,
			Name:           fmt.Sprintf("room-%d", i),
			ParticipantIDs: []uint{bob.ID},
			Wraps:          testWraps(1, alice, bob),
		}); err != nil {
			t.Fatalf("failed to create room: %v", err)
		}
	}
	if _, err := store.CreateRoom(ctx, CreateRoomParams{
		CreatorID: alice.ID,
		Name:      "alice-only",
		Wraps:     testWraps(1, alice),
	}); err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	aliceRooms, err := store.ListRoomsForUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("failed to list rooms: %v", err)
	}
	if len(aliceRooms) != 3 {
		t.Errorf("expected 3 rooms for alice, got %d", len(aliceRooms))
	}
	for _, r := range aliceRooms {
		if len(r.Participants) == 0 {
			t.Errorf("expected participants preloaded for room %d", r.ID)
		}
	}

	bobRooms, err := store.ListRoomsForUser(ctx, bob.ID)
	if err != nil {
		t.Fatalf("failed to list rooms: %v", err)
	}
	if len(bobRooms) != 2 {
		t.Errorf("expected 2 rooms for bob, got %d", len(bobRooms))
	}
}

func TestUploadedFileOperations(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")

	t.Run("create and get", func(t *testing.T) {
		file := &models.UploadedFile{
			Filename:   "ab12cd34.bin",
			Size:       1024,
			Hash:       "deadbeef",
			UploaderID: alice.ID,
		}
		if err := store.CreateUploadedFile(ctx, file); err != nil {
			t.Fatalf("failed to create file record: %v", err)
		}

		got, err := store.GetUploadedFile(ctx, "ab12cd34.bin")
		if err != nil {
			t.Fatalf("failed to get file record: %v", err)
		}
		if got.UploaderID != alice.ID {
			t.Errorf("expected uploader %d, got %d", alice.ID, got.UploaderID)
		}
		if got.Size != 1024 {
			t.Errorf("expected size 1024, got %d", got.Size)
		}
	})

	t.Run("get not found", func(t *testing.T) {
		_, err := store.GetUploadedFile(ctx, "missing.bin")
		if !errors.Is(err, models.ErrFileNotFound) {
			t.Errorf("expected ErrFileNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.DeleteUploadedFile(ctx, "ab12cd34.bin"); err != nil {
			t.Fatalf("failed to delete file record: %v", err)
		}
		if err := store.DeleteUploadedFile(ctx, "ab12cd34.bin"); !errors.Is(err, models.ErrFileNotFound) {
			t.Errorf("expected ErrFileNotFound on second delete, got %v", err)
		}
	})
}
