// Package model はドメインモデルを定義する。
package model

// AppleStatus はりんごの状態を表す。
// 状態は前方にのみ遷移する（Tree → Ground → Rotten）。
type AppleStatus int

const (
	// StatusOnTree は木に実っている状態。
	StatusOnTree AppleStatus = 0
	// StatusOnGround は地面に落ちている状態。
	StatusOnGround AppleStatus = 1
	// StatusRotten は腐った状態。
	StatusRotten AppleStatus = 2
)

// StatusLabels は状態コードから表示ラベルへのマッピング。
var StatusLabels = map[AppleStatus]string{
	StatusOnTree:   "木の上",
	StatusOnGround: "地面の上",
	StatusRotten:   "腐った",
}

// Label は状態の表示ラベルを返す。未定義の状態は "Unknown" を返す。
func (s AppleStatus) Label() string {
	if label, ok := StatusLabels[s]; ok {
		return label
	}
	return "Unknown"
}

// IsValid は状態コードが定義済みの範囲内かどうかを返す。
func (s AppleStatus) IsValid() bool {
	_, ok := StatusLabels[s]
	return ok
}

// Apple はユーザーが所有するりんご1個を表す。
// タイムスタンプはすべて秒単位のUnixエポック値で保持する。
type Apple struct {
	ID        int64
	UserID    string // 所有者（users.id、作成後は不変）
	Color     string // HEXカラーコード（作成時にパレットから抽選、不変）
	Status    AppleStatus
	Integrity int    // 残存率 [0,100]。eatでのみ減少する
	CreatedAt int64  // 作成時にジッターで過去方向に補正される
	FallAt    *int64 // Tree → Ground 遷移時に一度だけ設定される
	DeletedAt *int64 // 完食時のソフトデリート。非nilなら操作不可
	UpdatedAt int64
}

// IsDeleted はソフトデリート済み（完食済み）かどうかを返す。
func (a *Apple) IsDeleted() bool {
	return a.DeletedAt != nil
}

// 「落とす」アクションの定数。
const (
	ActionFallMethod = "status"
	ActionFallTitle  = "落とす"
	ActionFallColor  = "warning"
)

// 「食べる」アクションの定数。
const (
	ActionEatMethod = "eat"
	ActionEatTitle  = "食べる"
	ActionEatColor  = "success"
)

// AppleAction はクライアント表示用のアクション記述子。
// method はAPIの操作識別子、title は表示ラベル、color は表示ヒント。
type AppleAction struct {
	Method string `json:"method"`
	Title  string `json:"title"`
	Color  string `json:"color"`
}
