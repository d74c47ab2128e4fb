package apple

import (
	"math/rand"

	"github.com/hitoshi/orchard/internal/model"
)

// createdAtJitterSeconds は生成時にcreated_atを過去方向へずらす最大秒数（5時間）。
// 果樹園が自然に熟成してきたように見せるための補正。
const createdAtJitterSeconds = 18000

// colorPalettes は生成時に抽選されるHEXカラーの固定パレット。
var colorPalettes = [][]string{
	// green
	{"#32CD32", "#008000", "#228B22", "#ADFF2F", "#7CFC00"},
	// red
	{"#FF0000", "#DC143C", "#B22222", "#CD5C5C", "#FF6347"},
	// yellow
	{"#FFFF00", "#FFD700", "#FFFFE0", "#EEE8AA", "#F0E68C"},
	// maroon
	{"#800000", "#8B0000", "#A52A2A", "#A0522D", "#8B4513"},
}

// NewApple は初期状態のりんごを生成する。
// 色は固定パレットからランダムに抽選し、created_atは0〜5時間の
// ジッターで過去方向に補正する。IDは永続化時に採番される。
func NewApple(userID string, now int64, rnd *rand.Rand) *model.Apple {
	createdAt := now - rnd.Int63n(createdAtJitterSeconds+1)

	return &model.Apple{
		UserID:    userID,
		Color:     randomColor(rnd),
		Status:    model.StatusOnTree,
		Integrity: 100,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// randomColor はパレットを抽選し、その中から1色を抽選する。
func randomColor(rnd *rand.Rand) string {
	palette := colorPalettes[rnd.Intn(len(colorPalettes))]
	return palette[rnd.Intn(len(palette))]
}
