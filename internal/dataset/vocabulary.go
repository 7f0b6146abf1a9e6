package dataset

// Vocabulary is the keyword pool Generate samples from.
var Vocabulary = []string{
	// technical
	"database", "security", "encryption", "network", "system", "server", "client",
	"algorithm", "protocol", "authentication", "authorization", "privacy", "data",
	"search", "query", "index", "storage", "backup", "recovery", "performance",

	// business
	"project", "meeting", "report", "document", "presentation", "proposal",
	"contract", "agreement", "invoice", "payment", "budget", "schedule",
	"deadline", "milestone", "deliverable", "requirement", "specification",

	// general
	"email", "message", "notification", "alert", "update", "status", "progress",
	"issue", "problem", "solution", "question", "answer", "discussion", "review",
	"approval", "feedback", "comment", "note", "memo", "reminder", "task",

	// academic
	"research", "paper", "publication", "conference", "journal", "experiment",
	"analysis", "result", "conclusion", "methodology", "literature", "citation",
	"hypothesis", "theory", "model", "framework", "evaluation", "validation",

	// organization
	"department", "team", "manager", "director", "employee", "staff", "member",
	"organization", "company", "enterprise", "business", "corporate", "office",
	"division", "branch", "headquarters", "subsidiary", "partner", "vendor",

	// education
	"university", "college", "student", "professor", "course", "lecture", "exam",
	"grade", "degree", "certificate", "training", "workshop", "seminar", "tutorial",
}
