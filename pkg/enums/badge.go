package enums

import "fmt"

// BadgeCategory groups catalog badges for presentation.
type BadgeCategory string

const (
	BadgeCategoryStreak      BadgeCategory = "streak"
	BadgeCategoryMilestone   BadgeCategory = "milestone"
	BadgeCategoryAchievement BadgeCategory = "achievement"
	BadgeCategorySpecial     BadgeCategory = "special"
)

var validBadgeCategories = []BadgeCategory{
	BadgeCategoryStreak,
	BadgeCategoryMilestone,
	BadgeCategoryAchievement,
	BadgeCategorySpecial,
}

// IsValid reports whether the value is known.
func (c BadgeCategory) IsValid() bool {
	for _, candidate := range validBadgeCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseBadgeCategory converts raw input into a BadgeCategory.
func ParseBadgeCategory(value string) (BadgeCategory, error) {
	for _, candidate := range validBadgeCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid badge category %q", value)
}

// BadgeRarity communicates how hard a badge is to earn.
type BadgeRarity string

const (
	BadgeRarityCommon    BadgeRarity = "common"
	BadgeRarityRare      BadgeRarity = "rare"
	BadgeRarityEpic      BadgeRarity = "epic"
	BadgeRarityLegendary BadgeRarity = "legendary"
)

var validBadgeRarities = []BadgeRarity{
	BadgeRarityCommon,
	BadgeRarityRare,
	BadgeRarityEpic,
	BadgeRarityLegendary,
}

// IsValid reports whether the value is known.
func (r BadgeRarity) IsValid() bool {
	for _, candidate := range validBadgeRarities {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseBadgeRarity converts raw input into a BadgeRarity.
func ParseBadgeRarity(value string) (BadgeRarity, error) {
	for _, candidate := range validBadgeRarities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid badge rarity %q", value)
}
