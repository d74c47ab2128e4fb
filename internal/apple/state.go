// Package apple はりんごのライフサイクル（状態遷移・腐敗判定・生成）を提供する。
//
// 状態遷移は木の上 → 地面の上 → 腐った、の一方向にのみ進む。
// 腐敗はスケジューラではなく、読み取り・操作のたびに遅延評価される。
package apple

import (
	"github.com/hitoshi/orchard/internal/model"
)

// CheckRotten は腐敗の遅延評価を行う。
// 地面に落ちてから rotLimitSeconds を超えて経過し、かつ未削除の場合に
// 状態を「腐った」へ進める。冪等であり、何度呼んでも結果は同じ。
// 状態を進めた場合は true を返す。
func CheckRotten(a *model.Apple, now int64, rotLimitSeconds int64) bool {
	if a.Status != model.StatusOnGround || a.IsDeleted() || a.FallAt == nil {
		return false
	}

	if now-*a.FallAt > rotLimitSeconds {
		a.Status = model.StatusRotten
		a.UpdatedAt = now
		return true
	}

	return false
}

// Fall はりんごを地面に落とす。
// 木の上にあるりんごに対してのみ有効で、落下時刻を一度だけ記録する。
func Fall(a *model.Apple, now int64) error {
	if a.Status != model.StatusOnTree {
		return model.NewAlreadyFallenError()
	}

	a.Status = model.StatusOnGround
	fallAt := now
	a.FallAt = &fallAt
	a.UpdatedAt = now

	return nil
}

// Eat はりんごをpercent%かじる。
// 呼び出し前にCheckRottenを適用しておくこと（腐敗判定はビジネスルール検証に先行する）。
// 拒否時はフィールドを一切変更しない。
// 残存率が0以下になった場合は0に丸め、ソフトデリートする。
// percentに上限はない。残りより多くかじることは完食として扱う。
func Eat(a *model.Apple, percent int, now int64) error {
	if a.Status == model.StatusOnTree {
		return model.NewAppleOnTreeError()
	}

	if a.Status == model.StatusRotten {
		return model.NewAppleRottenError()
	}

	if a.IsDeleted() {
		return model.NewAlreadyEatenError()
	}

	if percent <= 0 {
		return model.NewInvalidPercentError(percent)
	}

	a.Integrity -= percent
	if a.Integrity <= 0 {
		a.Integrity = 0
		deletedAt := now
		a.DeletedAt = &deletedAt
	}
	a.UpdatedAt = now

	return nil
}

// AvailableActions は現在の状態から実行可能なアクションの一覧を導出する。
// 腐敗判定は呼び出し側が適用・永続化済みであることを前提とした純粋な射影。
//
//	ソフトデリート済み → なし
//	木の上            → 落とす
//	地面の上          → 食べる
//	腐った            → なし
func AvailableActions(a *model.Apple) []model.AppleAction {
	actions := []model.AppleAction{}

	if a.IsDeleted() {
		return actions
	}

	switch a.Status {
	case model.StatusOnTree:
		actions = append(actions, model.AppleAction{
			Method: model.ActionFallMethod,
			Title:  model.ActionFallTitle,
			Color:  model.ActionFallColor,
		})
	case model.StatusOnGround:
		actions = append(actions, model.AppleAction{
			Method: model.ActionEatMethod,
			Title:  model.ActionEatTitle,
			Color:  model.ActionEatColor,
		})
	}

	return actions
}
