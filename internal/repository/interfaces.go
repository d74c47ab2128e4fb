// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/orchard/internal/model"
)

// AppleRepository はりんごデータの永続化インターフェース。
// すべての読み書きは所有者ID条件付きで行い、他ユーザーのりんごは存在しないものとして扱う。
type AppleRepository interface {
	// FindByOwnerAndID は所有者スコープでりんごを1件取得する。見つからない場合はnilを返す。
	FindByOwnerAndID(ctx context.Context, ownerID string, appleID int64) (*model.Apple, error)

	// ListActiveByOwner は所有者のソフトデリートされていないりんごをID昇順で返す。
	// ID昇順は挿入順と一致する（created_atはジッターで補正されるため順序保証に使えない）。
	ListActiveByOwner(ctx context.Context, ownerID string) ([]*model.Apple, error)

	// Mutate はりんご1件に対する読み取り・変更・書き込みを行ロック付きトランザクションで実行する。
	// fnは行ロック保持中に呼ばれ、(永続化要否, エラー)を返す。
	// fnがエラーを返しても永続化要否がtrueならUPDATEはコミットされる
	// （食べる操作に先行する腐敗遷移だけを保存して拒否を返すケース）。
	// りんごが見つからない場合は(nil, nil)を返す。
	Mutate(ctx context.Context, ownerID string, appleID int64, fn func(*model.Apple) (bool, error)) (*model.Apple, error)

	// MarkRotten は地面の上かつ未削除のりんごを「腐った」へ進める冪等なUPDATE。
	// 一覧取得時の遅延腐敗評価の永続化に使う。条件に合致しない行は変更しない。
	MarkRotten(ctx context.Context, ownerID string, appleID int64, now int64) error

	// ReplaceForOwner は所有者の全りんごをハードデリートし、applesを1つの
	// トランザクションで一括挿入する。採番されたIDはapplesへ書き戻される。
	ReplaceForOwner(ctx context.Context, ownerID string, apples []*model.Apple) error

	// DeleteSoftDeletedBefore はdeleted_atがcutoffより古いソフトデリート済み行を
	// ハードデリートし、削除件数を返す。保持期間パージジョブから呼ばれる。
	DeleteSoftDeletedBefore(ctx context.Context, cutoff int64) (int64, error)
}

// SessionRepository はセッションデータの読み取りインターフェース。
// セッションの発行・失効は認証コラボレータの責務であり、本サービスは検証のみ行う。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れまたは未存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
