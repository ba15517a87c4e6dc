package recommend

import (
	"github.com/pathwise/backend/internal/interest"
	"github.com/pathwise/backend/internal/models"
)

// reasoning picks a human-readable explanation from a decision table
// over the interest score, observed accuracy, and pacing.
func reasoning(in SubjectInput) string {
	if !in.Interest.Available && !in.Ability.Available {
		return "Not enough data yet. Try a few questions to discover whether this subject suits you."
	}

	highInterest := in.Interest.Available && in.Interest.Value >= 60
	lowInterest := in.Interest.Available && in.Interest.Value < 40
	strongAccuracy := in.Attempts > 0 && in.Accuracy >= 70
	weakAccuracy := in.Attempts > 0 && in.Accuracy < 50
	pace := interest.ClassifyTime(in.AvgTimeSeconds, 60)

	switch {
	case highInterest && strongAccuracy && pace == interest.TimeVeryFast:
		return "You answer quickly and accurately here. This looks like a natural strength worth developing further."
	case highInterest && strongAccuracy:
		return "High interest combined with strong performance. A great candidate for deeper study."
	case highInterest && weakAccuracy:
		return "You clearly enjoy this subject. Your skills are still developing, so steady practice will pay off."
	case highInterest:
		return "Strong engagement with solid progress. Keep going to build mastery."
	case lowInterest && strongAccuracy:
		return "You perform well here despite low engagement. It may be more rewarding than it currently feels."
	case strongAccuracy && pace == interest.TimeSlow:
		return "Accurate but deliberate. Your results are strong; more practice will build speed."
	case weakAccuracy && pace == interest.TimeVeryFast:
		return "Fast answers with low accuracy suggest rushing. Slowing down could change your results here."
	case weakAccuracy:
		return "This subject is challenging right now. Focused practice on the fundamentals will help."
	default:
		return "Balanced interest and performance. Worth including in your regular rotation."
	}
}

// degreesFor suggests study programs aligned with a subject. Static
// catalog data surfaced alongside the ranking.
var subjectDegrees = map[models.Subject][]string{
	models.SubjectMathematics:     {"Mathematics", "Statistics", "Actuarial Science"},
	models.SubjectPhysics:         {"Physics", "Engineering", "Astronomy"},
	models.SubjectChemistry:       {"Chemistry", "Chemical Engineering", "Pharmacy"},
	models.SubjectBiology:         {"Biology", "Medicine", "Biotechnology"},
	models.SubjectComputerScience: {"Computer Science", "Software Engineering", "Data Science"},
	models.SubjectHistory:         {"History", "Archaeology", "International Relations"},
	models.SubjectGeography:       {"Geography", "Environmental Science", "Urban Planning"},
	models.SubjectLiterature:      {"Literature", "Creative Writing", "Journalism"},
	models.SubjectPhilosophy:      {"Philosophy", "Law", "Cognitive Science"},
	models.SubjectEconomics:       {"Economics", "Finance", "Business Administration"},
	models.SubjectPsychology:      {"Psychology", "Neuroscience", "Social Work"},
	models.SubjectEnglish:         {"English", "Linguistics", "Education"},
	models.SubjectArt:             {"Fine Arts", "Graphic Design", "Architecture"},
	models.SubjectMusic:           {"Music", "Music Production", "Musicology"},
}

func degreesFor(s models.Subject) []string {
	return subjectDegrees[s]
}
