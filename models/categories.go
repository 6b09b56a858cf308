package models

type PlayerCategory string

const (
	PlayerCategoryPripravkaU9  PlayerCategory = "pripravka_u9"
	PlayerCategoryPripravkaU11 PlayerCategory = "pripravka_u11"
	PlayerCategoryZiaci        PlayerCategory = "ziaci"
	PlayerCategoryDorastenci   PlayerCategory = "dorastenci"
	PlayerCategoryAdultsYoung  PlayerCategory = "adults_young"
	PlayerCategoryAdultsPro    PlayerCategory = "adults_pro"
)

func (c PlayerCategory) Valid() bool {
	switch c {
	case PlayerCategoryPripravkaU9, PlayerCategoryPripravkaU11, PlayerCategoryZiaci,
		PlayerCategoryDorastenci, PlayerCategoryAdultsYoung, PlayerCategoryAdultsPro:
		return true
	}
	return false
}

type TrainingCategory string

const (
	TrainingCategoryPripravky   TrainingCategory = "pripravky"
	TrainingCategoryZiaci       TrainingCategory = "ziaci"
	TrainingCategoryDorastenci  TrainingCategory = "dorastenci"
	TrainingCategoryAdultsYoung TrainingCategory = "adults_young"
	TrainingCategoryAdultsPro   TrainingCategory = "adults_pro"
)

func (c TrainingCategory) Valid() bool {
	_, ok := trainingToPlayerCategories[c]
	return ok
}

// One training category covers one or more player categories. The pripravky
// sessions are shared between both pripravka age cohorts; everything else maps
// one to one. Visibility checks must expand through this table, never compare
// the two category kinds directly.
var trainingToPlayerCategories = map[TrainingCategory][]PlayerCategory{
	TrainingCategoryPripravky:   {PlayerCategoryPripravkaU9, PlayerCategoryPripravkaU11},
	TrainingCategoryZiaci:       {PlayerCategoryZiaci},
	TrainingCategoryDorastenci:  {PlayerCategoryDorastenci},
	TrainingCategoryAdultsYoung: {PlayerCategoryAdultsYoung},
	TrainingCategoryAdultsPro:   {PlayerCategoryAdultsPro},
}

// PlayerCategoriesFor returns the player categories a training category
// addresses. Unknown categories yield nil.
func PlayerCategoriesFor(tc TrainingCategory) []PlayerCategory {
	return trainingToPlayerCategories[tc]
}

// TrainingCategoriesFor returns every training category whose audience
// includes the given player category. An empty result is a valid answer: such
// a player simply sees no trainings.
func TrainingCategoriesFor(pc PlayerCategory) []TrainingCategory {
	var out []TrainingCategory
	for tc, players := range trainingToPlayerCategories {
		for _, p := range players {
			if p == pc {
				out = append(out, tc)
				break
			}
		}
	}
	return out
}

// TrainingCoversPlayerCategory reports whether a training scheduled for tc is
// meant for a player in pc.
func TrainingCoversPlayerCategory(tc TrainingCategory, pc PlayerCategory) bool {
	for _, p := range trainingToPlayerCategories[tc] {
		if p == pc {
			return true
		}
	}
	return false
}
