package model

import "time"

// Subscription 은 부동산 등기 변경 감시 구독을 표현한다.
// (AddressPin, Email) 조합은 유일해야 한다.
// LastSnapshot 은 점검 실행기만 갱신하며, 점검 경로에서 구독을 삭제하는 일은 없다.
type Subscription struct {
	ID           string
	AddressPin   string
	OwnerName    string
	Email        string
	Address      string
	LastSnapshot RegistrationRecord // 최초 실행 전에는 nil
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary 는 알림 메일 등에 쓰이는 구독 요약을 반환한다.
func (s *Subscription) Summary() SubscriptionSummary {
	return SubscriptionSummary{
		Address:    s.Address,
		AddressPin: s.AddressPin,
		OwnerName:  s.OwnerName,
	}
}

// SubscriptionSummary 는 메일 본문에 들어가는 구독 정보의 축약이다.
type SubscriptionSummary struct {
	Address    string
	AddressPin string
	OwnerName  string
}
