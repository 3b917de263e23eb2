package iros

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joonzero/patrol/internal/model"
)

// 포털 내부 API 계약. 제3자가 고정한 값이며 이쪽에서 통제할 수 없다.
// 이 값들이 바뀌면 본 시스템의 버그가 아니라 연동 단절이다.
const (
	loginPath  = "/biz/Pm10P0LoginMngCtrl/handleMbrLogin.do?IS_NMBR_LOGIN__=null"
	searchPath = "/biz/Pr10AwrtApplRealInputCtrl/retrieveSmplSrch.do"
	checkPath  = "/biz/Pr10AwrtApplRealInputCtrl/retrieveRealEstChk.do"
	ownerPath  = "/biz/Pr10AwrtApplRealInputCtrl/retrieveOwnerNmSrch.do"

	loginSubmissionID = "mf_wfm_potal_main_wfm_content_sbm_Pm10P0LoginMngCtrl_handleMbrLogin"

	// successMarker 는 포털이 200 JSON 본문 안에 넣는 성공 표식.
	successMarker = "SUCCESS"

	// searchPageSize 는 포털 기본 페이지 크기. 변경 불가.
	searchPageSize = 10
)

// websquareBody 는 포털 요청 본문의 공통 래핑이다.
type websquareBody struct {
	Param any `json:"websquare_param"`
}

// Login 은 포털에 로그인해 새 Session을 만든다.
// 응답의 user_id 에코가 입력과 다르거나 crypted_id가 비어 있으면
// *LoginError를 반환한다(자격 증명 거부 또는 API 계약 변경의 신호).
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	session := &Session{
		AccountID: creds.ID,
		Jar:       NewCookieJar(),
		CreatedAt: time.Now(),
	}

	body := websquareBody{Param: map[string]any{
		"user_id":          creds.ID,
		"mbr_pw":           creds.Password,
		"general_login_yn": "Y",
		"user_id_g":        creds.ID,
		"mbr_pw_g":         creds.Password,
	}}

	raw, err := c.postJSON(ctx, session, loginPath, loginSubmissionID, body)
	if err != nil {
		return nil, err
	}

	var res struct {
		UserID    string `json:"user_id"`
		CryptedID string `json:"crypted_id"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, &LoginError{Reason: "로그인 응답을 해석할 수 없습니다"}
	}
	if res.UserID != creds.ID || res.CryptedID == "" {
		return nil, &LoginError{Reason: "로그인 오류, 등기소 확인필요."}
	}

	session.CryptedID = res.CryptedID

	// 서버가 내려주지 않지만 포털 프로토콜이 기대하는 쿠키를 합성한다.
	now := time.Now().Unix()
	session.Jar.Set("userId", creds.ID)
	session.Jar.Set("popupIdOTP-CM-001", "OTP-CM-001")
	session.Jar.Set("lastAccess", fmt.Sprintf("%d000", now))

	return session, nil
}

// sessionQuery 는 로그인 이후 모든 호출에 붙는 세션 식별 쿼리이다.
func sessionQuery(s *Session) string {
	return fmt.Sprintf("?CRYPTED_ID__=%s&USER_ID__=%s&IS_NMBR_LOGIN__=null", s.CryptedID, s.AccountID)
}

// popupSubmissionID 는 UI 팝업 동작을 흉내 내는 submissionid를 만든다.
func popupSubmissionID(action string, ts int64) string {
	return fmt.Sprintf("mf_wfm_potal_main_wfm_content_popup%d_wframe_sbm_Pr10AwrtApplRealInputCtrl_%s", ts, action)
}

// searchResponse 는 주소 검색 응답의 봉투이다.
type searchResponse struct {
	Result         string `json:"result"`
	Msg            string `json:"msg"`
	PaginationInfo struct {
		TotalRecordCount int `json:"totalRecordCount"`
	} `json:"paginationInfo"`
	RealEstList []struct {
		RealIndiContDetail string `json:"real_indi_cont_detail"`
		Pin                string `json:"pin"`
	} `json:"realEstList"`
}

// SearchAddress 는 주소 키워드로 부동산 후보를 검색한다.
// 포털 기본 페이지 크기(10건)로 전체 페이지를 끝까지 순회해 이어 붙이고,
// 포털이 보고한 전체 건수가 상한을 넘으면 *TooManyResultsError를 반환한다.
// 표시 주소에 섞인 마크업은 제거해서 돌려준다.
func (c *Client) SearchAddress(ctx context.Context, s *Session, query string) ([]model.AddressCandidate, error) {
	ts := time.Now().Unix()
	url := searchPath + sessionQuery(s)

	var candidates []model.AddressCandidate
	pageIndex := 1
	for {
		body := websquareBody{Param: map[string]any{
			"search_kwd":       query,
			"real_cls":         "",
			"sido_gb":          "",
			"use_cls":          "",
			"pageIndex":        pageIndex,
			"pageUnitProperty": fmt.Sprintf("pr10.common.pagenation.pageUnit.%d", searchPageSize),
			"pageSizeProperty": fmt.Sprintf("pr10.common.pagenation.pageSize.%d", searchPageSize),
		}}

		raw, err := c.postJSON(ctx, s, url, popupSubmissionID("retrieveSmplSrch", ts), body)
		if err != nil {
			return nil, err
		}

		var res searchResponse
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, &PortalProtocolError{Endpoint: searchPath, Message: "검색 응답을 해석할 수 없습니다"}
		}
		if res.Result != successMarker {
			return nil, &PortalProtocolError{Endpoint: searchPath, Result: res.Result, Message: res.Msg}
		}

		total := res.PaginationInfo.TotalRecordCount
		if total > c.searchLimit {
			return nil, &TooManyResultsError{Total: total, Limit: c.searchLimit}
		}

		for _, item := range res.RealEstList {
			candidates = append(candidates, model.AddressCandidate{
				DisplayAddress: stripMarkup(item.RealIndiContDetail),
				Pin:            item.Pin,
			})
		}

		totalPages := (total + searchPageSize - 1) / searchPageSize
		if pageIndex >= totalPages || len(res.RealEstList) == 0 {
			break
		}
		pageIndex++
	}

	return candidates, nil
}

// ResolveAddressOwner 는 주소/PIN 쌍을 검증하고 소유자 연계 메타데이터를
// 조회하는 단발 질의이다.
func (c *Client) ResolveAddressOwner(ctx context.Context, s *Session, pin, addressDetail string) (model.OwnerInfo, error) {
	body := websquareBody{Param: map[string]any{
		"pin":                   pin,
		"real_indi_cont_detail": addressDetail,
	}}

	raw, err := c.postJSON(ctx, s, checkPath+sessionQuery(s), popupSubmissionID("retrieveRealEstChk", time.Now().Unix()), body)
	if err != nil {
		return nil, err
	}

	fields, err := parsePortalBody(checkPath, raw)
	if err != nil {
		return nil, err
	}
	return model.OwnerInfo(fields), nil
}

// FetchRecordByOwnerName 은 소유자 이름으로 등기사항 스냅샷을 조회하는
// 마지막 단계이다. 본문 안의 result 마커가 성공이 아니면
// *PortalProtocolError를 반환한다.
func (c *Client) FetchRecordByOwnerName(ctx context.Context, s *Session, pin, addressDetail, ownerName string) (model.RegistrationRecord, error) {
	body := websquareBody{Param: map[string]any{
		"pin":                   pin,
		"real_indi_cont_detail": addressDetail,
		"owner_name":            ownerName,
	}}

	raw, err := c.postJSON(ctx, s, ownerPath+sessionQuery(s), popupSubmissionID("retrieveOwnerNmSrch", time.Now().Unix()), body)
	if err != nil {
		return nil, err
	}

	fields, err := parsePortalBody(ownerPath, raw)
	if err != nil {
		return nil, err
	}
	return model.RegistrationRecord(fields), nil
}

// parsePortalBody 는 포털 응답을 키/값 맵으로 해석하고 result 마커를
// 검증한다. 봉투 키(result, msg)는 제거하고 나머지를 그대로 돌려준다.
func parsePortalBody(endpoint string, raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &PortalProtocolError{Endpoint: endpoint, Message: "응답이 JSON이 아닙니다"}
	}

	result, _ := m["result"].(string)
	if result != successMarker {
		msg, _ := m["msg"].(string)
		return nil, &PortalProtocolError{Endpoint: endpoint, Result: result, Message: msg}
	}

	delete(m, "result")
	delete(m, "msg")
	return m, nil
}
