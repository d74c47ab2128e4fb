package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/orchard/internal/model"
)

// PostgresAppleRepo はPostgreSQLを使用したりんごリポジトリ。
type PostgresAppleRepo struct {
	db *sql.DB
}

// NewPostgresAppleRepo はPostgresAppleRepoを生成する。
func NewPostgresAppleRepo(db *sql.DB) *PostgresAppleRepo {
	return &PostgresAppleRepo{db: db}
}

// appleColumns はSELECT句で使用するカラムの並び。scanApple側と一致させること。
const appleColumns = `id, user_id, color, status, integrity, created_at, fall_at, deleted_at, updated_at`

// scanApple は1行をmodel.Appleに読み取る。
func scanApple(row interface{ Scan(...any) error }) (*model.Apple, error) {
	a := &model.Apple{}
	var fallAt, deletedAt sql.NullInt64

	err := row.Scan(
		&a.ID, &a.UserID, &a.Color, &a.Status, &a.Integrity,
		&a.CreatedAt, &fallAt, &deletedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if fallAt.Valid {
		a.FallAt = &fallAt.Int64
	}
	if deletedAt.Valid {
		a.DeletedAt = &deletedAt.Int64
	}

	return a, nil
}

// FindByOwnerAndID は所有者スコープでりんごを1件取得する。見つからない場合はnilを返す。
func (r *PostgresAppleRepo) FindByOwnerAndID(ctx context.Context, ownerID string, appleID int64) (*model.Apple, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+appleColumns+` FROM apples WHERE id = $1 AND user_id = $2`,
		appleID, ownerID,
	)

	a, err := scanApple(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("りんごの取得に失敗しました: %w", err)
	}

	return a, nil
}

// ListActiveByOwner は所有者のソフトデリートされていないりんごをID昇順で返す。
func (r *PostgresAppleRepo) ListActiveByOwner(ctx context.Context, ownerID string) ([]*model.Apple, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+appleColumns+` FROM apples
		 WHERE user_id = $1 AND deleted_at IS NULL
		 ORDER BY id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("りんご一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var apples []*model.Apple
	for rows.Next() {
		a, err := scanApple(rows)
		if err != nil {
			return nil, fmt.Errorf("りんご行の読み取りに失敗しました: %w", err)
		}
		apples = append(apples, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("りんご一覧の走査に失敗しました: %w", err)
	}

	return apples, nil
}

// Mutate はりんご1件の読み取り・変更・書き込みをSELECT ... FOR UPDATEの
// 行ロック付きトランザクションで実行する。同一りんごへの並行操作は
// 行ロックで直列化され、読み取り・変更・書き込みが交差することはない。
// fnの永続化要否がtrueの場合、fnがエラーを返してもUPDATEをコミットする。
func (r *PostgresAppleRepo) Mutate(
	ctx context.Context,
	ownerID string,
	appleID int64,
	fn func(*model.Apple) (bool, error),
) (*model.Apple, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+appleColumns+` FROM apples WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		appleID, ownerID,
	)

	a, err := scanApple(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("りんごのロック取得に失敗しました: %w", err)
	}

	dirty, fnErr := fn(a)
	if !dirty {
		// 変更なし: ロールバックして状態を一切変更しない
		return a, fnErr
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE apples
		 SET status = $3, integrity = $4, fall_at = $5, deleted_at = $6, updated_at = $7
		 WHERE id = $1 AND user_id = $2`,
		a.ID, ownerID, a.Status, a.Integrity, nullInt64(a.FallAt), nullInt64(a.DeletedAt), a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("りんごの更新に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("りんご更新のコミットに失敗しました: %w", err)
	}

	return a, fnErr
}

// MarkRotten は地面の上かつ未削除のりんごを「腐った」へ進める。
// 前提条件をWHERE句で強制する冪等なUPDATEのため、並行実行しても
// 状態が後退したり遷移が失われたりすることはない。
func (r *PostgresAppleRepo) MarkRotten(ctx context.Context, ownerID string, appleID int64, now int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE apples SET status = $3, updated_at = $4
		 WHERE id = $1 AND user_id = $2 AND status = $5 AND deleted_at IS NULL`,
		appleID, ownerID, model.StatusRotten, now, model.StatusOnGround,
	)
	if err != nil {
		return fmt.Errorf("腐敗状態の更新に失敗しました: %w", err)
	}
	return nil
}

// ReplaceForOwner は所有者の全りんごをハードデリートし、applesを
// 同一トランザクションで一括挿入する。DELETEとINSERTが1つの
// トランザクションに収まるため、削除予定のりんごへの並行操作とは
// 交差しない（行ロックと直列化される）。
func (r *PostgresAppleRepo) ReplaceForOwner(ctx context.Context, ownerID string, apples []*model.Apple) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM apples WHERE user_id = $1`, ownerID); err != nil {
		return fmt.Errorf("既存りんごの削除に失敗しました: %w", err)
	}

	if len(apples) > 0 {
		// 複数行VALUESの一括INSERT。採番されたIDをVALUES順に受け取る。
		var sb strings.Builder
		sb.WriteString(`INSERT INTO apples (user_id, color, status, integrity, created_at, fall_at, deleted_at, updated_at) VALUES `)

		args := make([]any, 0, len(apples)*8)
		for i, a := range apples {
			if i > 0 {
				sb.WriteString(", ")
			}
			base := i * 8
			fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
			args = append(args,
				a.UserID, a.Color, a.Status, a.Integrity,
				a.CreatedAt, nullInt64(a.FallAt), nullInt64(a.DeletedAt), a.UpdatedAt,
			)
		}
		sb.WriteString(` RETURNING id`)

		rows, err := tx.QueryContext(ctx, sb.String(), args...)
		if err != nil {
			return fmt.Errorf("りんごの一括挿入に失敗しました: %w", err)
		}

		i := 0
		for rows.Next() {
			if i >= len(apples) {
				break
			}
			if err := rows.Scan(&apples[i].ID); err != nil {
				rows.Close()
				return fmt.Errorf("採番IDの読み取りに失敗しました: %w", err)
			}
			i++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("採番IDの走査に失敗しました: %w", err)
		}
		rows.Close()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("りんご再生成のコミットに失敗しました: %w", err)
	}

	return nil
}

// DeleteSoftDeletedBefore はdeleted_atがcutoffより古いソフトデリート済み行を
// ハードデリートし、削除件数を返す。
func (r *PostgresAppleRepo) DeleteSoftDeletedBefore(ctx context.Context, cutoff int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM apples WHERE deleted_at IS NOT NULL AND deleted_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("ソフトデリート済みりんごのパージに失敗しました: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("パージ件数の取得に失敗しました: %w", err)
	}

	return n, nil
}

// nullInt64 は*int64をsql.NullInt64に変換する。
func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// compile-time interface check
var _ AppleRepository = (*PostgresAppleRepo)(nil)
