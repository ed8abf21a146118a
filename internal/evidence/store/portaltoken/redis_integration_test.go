//go:build integration

package portaltoken_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"conforma/internal/evidence/models"
	"conforma/internal/evidence/store/portaltoken"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
	"conforma/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *portaltoken.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = portaltoken.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) newToken(requestID id.EvidenceRequestID, ttl time.Duration) *models.PortalToken {
	return &models.PortalToken{
		TokenID:    uuid.NewString(),
		RequestID:  requestID,
		CompanyID:  id.NewCompanyID(),
		SecretHash: "$2a$10$bcrypt-hash-placeholder",
		ExpiresAt:  time.Now().Add(ttl),
	}
}

func (s *RedisStoreSuite) TestSaveAndFindRoundTrip() {
	ctx := context.Background()
	token := s.newToken(id.NewEvidenceRequestID(), time.Hour)

	s.Require().NoError(s.store.Save(ctx, token))

	found, err := s.store.Find(ctx, token.TokenID)
	s.Require().NoError(err)
	s.Equal(token.TokenID, found.TokenID)
	s.Equal(token.RequestID, found.RequestID)
	s.Equal(token.CompanyID, found.CompanyID)
	s.Equal(token.SecretHash, found.SecretHash)
	s.WithinDuration(token.ExpiresAt, found.ExpiresAt, time.Second)
}

func (s *RedisStoreSuite) TestUnknownTokenNotFound() {
	_, err := s.store.Find(context.Background(), uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestExpiredTokenRejectedOnSave() {
	token := s.newToken(id.NewEvidenceRequestID(), -time.Minute)
	err := s.store.Save(context.Background(), token)
	s.Error(err)
}

func (s *RedisStoreSuite) TestReissueReplacesEarlierToken() {
	ctx := context.Background()
	requestID := id.NewEvidenceRequestID()

	first := s.newToken(requestID, time.Hour)
	s.Require().NoError(s.store.Save(ctx, first))

	second := s.newToken(requestID, time.Hour)
	s.Require().NoError(s.store.Save(ctx, second))

	_, err := s.store.Find(ctx, first.TokenID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	found, err := s.store.Find(ctx, second.TokenID)
	s.Require().NoError(err)
	s.Equal(requestID, found.RequestID)
}

func (s *RedisStoreSuite) TestTokensForDifferentRequestsCoexist() {
	ctx := context.Background()
	first := s.newToken(id.NewEvidenceRequestID(), time.Hour)
	second := s.newToken(id.NewEvidenceRequestID(), time.Hour)

	s.Require().NoError(s.store.Save(ctx, first))
	s.Require().NoError(s.store.Save(ctx, second))

	_, err := s.store.Find(ctx, first.TokenID)
	s.Require().NoError(err)
	_, err = s.store.Find(ctx, second.TokenID)
	s.Require().NoError(err)
}

func (s *RedisStoreSuite) TestShortTTLExpires() {
	ctx := context.Background()
	token := s.newToken(id.NewEvidenceRequestID(), time.Second)
	s.Require().NoError(s.store.Save(ctx, token))

	s.Require().Eventually(func() bool {
		_, err := s.store.Find(ctx, token.TokenID)
		return err != nil
	}, 5*time.Second, 250*time.Millisecond)
}
