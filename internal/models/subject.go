package models

type Subject string

const (
	SubjectMathematics     Subject = "mathematics"
	SubjectPhysics         Subject = "physics"
	SubjectChemistry       Subject = "chemistry"
	SubjectBiology         Subject = "biology"
	SubjectComputerScience Subject = "computer_science"
	SubjectHistory         Subject = "history"
	SubjectGeography       Subject = "geography"
	SubjectLiterature      Subject = "literature"
	SubjectPhilosophy      Subject = "philosophy"
	SubjectEconomics       Subject = "economics"
	SubjectPsychology      Subject = "psychology"
	SubjectEnglish         Subject = "english"
	SubjectArt             Subject = "art"
	SubjectMusic           Subject = "music"
)

// AllSubjects is the stable iteration order used wherever per-subject
// output must be deterministic.
var AllSubjects = []Subject{
	SubjectMathematics,
	SubjectPhysics,
	SubjectChemistry,
	SubjectBiology,
	SubjectComputerScience,
	SubjectHistory,
	SubjectGeography,
	SubjectLiterature,
	SubjectPhilosophy,
	SubjectEconomics,
	SubjectPsychology,
	SubjectEnglish,
	SubjectArt,
	SubjectMusic,
}

var ValidSubjects = map[Subject]bool{
	SubjectMathematics:     true,
	SubjectPhysics:         true,
	SubjectChemistry:       true,
	SubjectBiology:         true,
	SubjectComputerScience: true,
	SubjectHistory:         true,
	SubjectGeography:       true,
	SubjectLiterature:      true,
	SubjectPhilosophy:      true,
	SubjectEconomics:       true,
	SubjectPsychology:      true,
	SubjectEnglish:         true,
	SubjectArt:             true,
	SubjectMusic:           true,
}

type SubjectCategory string

const (
	CategorySTEM          SubjectCategory = "stem"
	CategoryHumanities    SubjectCategory = "humanities"
	CategorySocialScience SubjectCategory = "social_science"
	CategoryLanguage      SubjectCategory = "language"
	CategoryArts          SubjectCategory = "arts"
)

var subjectCategories = map[Subject]SubjectCategory{
	SubjectMathematics:     CategorySTEM,
	SubjectPhysics:         CategorySTEM,
	SubjectChemistry:       CategorySTEM,
	SubjectBiology:         CategorySTEM,
	SubjectComputerScience: CategorySTEM,
	SubjectHistory:         CategoryHumanities,
	SubjectGeography:       CategorySocialScience,
	SubjectLiterature:      CategoryHumanities,
	SubjectPhilosophy:      CategoryHumanities,
	SubjectEconomics:       CategorySocialScience,
	SubjectPsychology:      CategorySocialScience,
	SubjectEnglish:         CategoryLanguage,
	SubjectArt:             CategoryArts,
	SubjectMusic:           CategoryArts,
}

// CategoryOf returns the category used for recommendation diversification.
func CategoryOf(s Subject) SubjectCategory {
	if c, ok := subjectCategories[s]; ok {
		return c
	}
	return CategoryHumanities
}
