// Package crawl 은 대화식 등기 조회 흐름(주소 검색 → 대상 확정 → 소유자 확인)을 제공한다.
package crawl

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joonzero/patrol/internal/iros"
	"github.com/joonzero/patrol/internal/model"
)

// RegistryClient 는 등기소 포털 연동 인터페이스.
type RegistryClient interface {
	// Login 은 포털에 로그인해 세션을 생성한다.
	Login(ctx context.Context, creds iros.Credentials) (*iros.Session, error)

	// SearchAddress 는 주소 문자열로 부동산 후보를 전수 검색한다.
	SearchAddress(ctx context.Context, s *iros.Session, query string) ([]model.AddressCandidate, error)

	// ResolveAddressOwner 는 선택한 후보의 등기 대상 정보를 확정한다.
	ResolveAddressOwner(ctx context.Context, s *iros.Session, pin, addressDetail string) (model.OwnerInfo, error)

	// FetchRecordByOwnerName 은 소유자명 대조로 등기 레코드를 조회한다.
	FetchRecordByOwnerName(ctx context.Context, s *iros.Session, pin, addressDetail, ownerName string) (model.RegistrationRecord, error)
}

// Service 는 대화식 조회의 서비스 계층.
// 검색 시 만든 포털 세션을 토큰으로 보관해 후속 단계가 같은 세션을 이어 쓰게 한다.
type Service struct {
	client   RegistryClient
	creds    iros.Credentials
	sessions *SessionCache
	logger   *slog.Logger
}

// FindAddressResult 는 주소 검색 응답이다. Token은 후속 단계 호출에 필요하다.
type FindAddressResult struct {
	Token      string                   `json:"token"`
	Candidates []model.AddressCandidate `json:"candidates"`
}

// NewService 는 Service의 새 인스턴스를 생성한다.
func NewService(client RegistryClient, creds iros.Credentials, sessions *SessionCache, logger *slog.Logger) *Service {
	return &Service{client: client, creds: creds, sessions: sessions, logger: logger}
}

// FindAddress 는 포털에 로그인해 주소를 검색하고, 세션 토큰과 후보 목록을 돌려준다.
func (s *Service) FindAddress(ctx context.Context, query string) (*FindAddressResult, error) {
	if query == "" {
		return nil, model.NewInvalidRequestError("검색 주소가 비어 있습니다")
	}

	session, err := s.client.Login(ctx, s.creds)
	if err != nil {
		return nil, mapPortalError(err)
	}

	candidates, err := s.client.SearchAddress(ctx, session, query)
	if err != nil {
		return nil, mapPortalError(err)
	}

	token := s.sessions.Put(session)
	s.logger.Info("주소 검색을 완료했습니다",
		slog.String("query", query),
		slog.Int("candidate_count", len(candidates)),
	)
	return &FindAddressResult{Token: token, Candidates: candidates}, nil
}

// FindProcess 는 검색 후보 중 하나를 골라 등기 대상 정보를 확정한다.
func (s *Service) FindProcess(ctx context.Context, token, pin, address string) (model.OwnerInfo, error) {
	if pin == "" || address == "" {
		return nil, model.NewInvalidRequestError("부동산 고유번호와 주소가 필요합니다")
	}

	session, ok := s.sessions.Get(token)
	if !ok {
		return nil, model.NewSessionExpiredError()
	}

	info, err := s.client.ResolveAddressOwner(ctx, session, pin, address)
	if err != nil {
		return nil, mapPortalError(err)
	}
	return info, nil
}

// CheckProcess 는 소유자명을 대조해 등기 레코드를 조회한다.
func (s *Service) CheckProcess(ctx context.Context, token, pin, address, ownerName string) (model.RegistrationRecord, error) {
	if pin == "" || address == "" || ownerName == "" {
		return nil, model.NewInvalidRequestError("부동산 고유번호, 주소, 소유자명이 필요합니다")
	}

	session, ok := s.sessions.Get(token)
	if !ok {
		return nil, model.NewSessionExpiredError()
	}

	record, err := s.client.FetchRecordByOwnerName(ctx, session, pin, address, ownerName)
	if err != nil {
		return nil, mapPortalError(err)
	}
	return record, nil
}

// mapPortalError 는 포털 계층의 에러를 통일 에러 포맷으로 변환한다.
func mapPortalError(err error) *model.APIError {
	var loginErr *iros.LoginError
	if errors.As(err, &loginErr) {
		return model.NewLoginFailedError()
	}
	var tooMany *iros.TooManyResultsError
	if errors.As(err, &tooMany) {
		return model.NewTooManyResultsError(tooMany.Total, tooMany.Limit)
	}
	var protoErr *iros.PortalProtocolError
	if errors.As(err, &protoErr) {
		return model.NewPortalError(protoErr.Message)
	}
	return model.NewPortalError(err.Error())
}
