package service

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_LoginIssuesToken(t *testing.T) {
	f := newFixture(t)
	secret := []byte("test-secret")
	svc := NewUserService(f.users, secret)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, CreateUserRequest{Username: "ann", Email: "ann@example.com", Password: "hunter22", Role: "manager"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "ann", Email: "other@example.com", Password: "hunter22", Role: "manager"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Login(ctx, LoginUserRequest{Email: "ann@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	tok, err := svc.Login(ctx, LoginUserRequest{Email: "ann@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Greater(t, tok.ExpiresAt, time.Now().Unix())

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return secret, nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "manager", claims["role"])
	sub, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "1", sub)
	assert.Equal(t, uint(1), created.ID)
}

func TestUserGroupService_SetMembersChecksUsers(t *testing.T) {
	f := newFixture(t)
	svc := NewUserGroupService(f.groups, f.users, f.tx)
	ctx := context.Background()

	u := f.addUser(t, "carl")
	group, err := svc.CreateGroup(ctx, CreateUserGroupRequest{Name: "Wholesale", Handle: "wholesale"})
	require.NoError(t, err)

	_, err = svc.SetMembers(ctx, group.ID, SetGroupMembersRequest{UserIDs: []uint{u.ID, 500}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	resp, err := svc.SetMembers(ctx, group.ID, SetGroupMembersRequest{UserIDs: []uint{u.ID, u.ID}})
	require.NoError(t, err)
	assert.Equal(t, []uint{u.ID}, resp.UserIDs)

	ids, err := f.groups.MemberIDs(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{u.ID}, ids)
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlock, err := NewRedisLocker(client, time.Minute).TryLock(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGenerationInProgress)
	assert.Nil(t, unlock)
}

// scriptedRedis answers commands in-process: SET NX reports acquired and
// every script call fails with releaseErr.
type scriptedRedis struct {
	acquired   bool
	releaseErr error
}

func (h scriptedRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("no network in tests")
	}
}

func (h scriptedRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		switch c := cmd.(type) {
		case *redis.BoolCmd:
			c.SetVal(h.acquired)
		case *redis.Cmd:
			c.SetErr(h.releaseErr)
		}
		return cmd.Err()
	}
}

func (h scriptedRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisLocker_Busy(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	client.AddHook(scriptedRedis{acquired: false})

	unlock, err := NewRedisLocker(client, time.Minute).TryLock(context.Background())
	assert.ErrorIs(t, err, ErrGenerationInProgress)
	assert.Nil(t, unlock)
}

func TestRedisLocker_FailedReleaseIsLogged(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	client.AddHook(scriptedRedis{acquired: true, releaseErr: errors.New("READONLY replica")})

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	unlock, err := NewRedisLocker(client, time.Minute).TryLock(ctx)
	require.NoError(t, err)
	unlock()
	unlock()

	assert.Contains(t, buf.String(), "failed to release generation lock")
	assert.Contains(t, buf.String(), "READONLY replica")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("failed to release")))
}
