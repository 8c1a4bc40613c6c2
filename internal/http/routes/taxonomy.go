package routes

import "net/http"

// The content taxonomy is fixed by the editorial team, not stored in
// the sheet.

var contentCategories = map[string][]string{
	"Exam Pattern":         {"Bank", "SSC", "Teaching", "State Exams", "UPSC", "Railway", "Other"},
	"Syllabus Overview":    {"Bank", "SSC", "Teaching", "State Exams", "UPSC", "Railway", "Other"},
	"Preparation Strategy": {"Bank", "SSC", "Teaching", "State Exams", "UPSC", "Railway", "Other"},
	"Study Plan": {
		"30 Days Plan", "60 Days Plan", "90 Days Plan", "6 Months Plan",
		"1 Year Plan", "Subject-wise Plan", "Other",
	},
	"Conceptual Insights":       {"Bank", "SSC", "Teaching", "State Exams", "Other"},
	"Tips & Tricks / Shortcuts": {"Bank", "SSC", "Teaching", "State Exams", "Other"},
	"PYQs / Practice Questions": {"Bank", "SSC", "Teaching", "State Exams", "Other"},
	"Science / GK Facts": {
		"General Science", "Current Affairs", "Static GK", "History", "Geography", "Other",
	},
	"Motivational Shorts": {
		"Success Stories", "Daily Motivation", "Study Tips", "Time Management",
		"Stress Management", "Other",
	},
	"Classroom Moments": {
		"Teacher Highlights", "Student Interactions", "Funny Moments", "Teaching Methods", "Other",
	},
	"Exam Life Situations": {
		"Exam Day Stories", "Preparation Journey", "Result Day", "Student Life",
		"Relatable Content", "Other",
	},
}

type examGroup struct {
	Exams    []string `json:"exams"`
	Subjects []string `json:"subjects"`
}

var examGroups = map[string]examGroup{
	"Bank Pre": {
		Exams: []string{"SBI Clerk", "SBI PO", "IBPS CLERK", "IBPS PO", "LIC AAO", "RRB PO", "RRB Clerk"},
		Subjects: []string{
			"Reasoning", "Quants", "English", "General Awareness", "Current Affairs",
			"Hindi", "Computer", "Other",
		},
	},
	"Bank Post": {
		Exams: []string{"JAIIB", "CAIIB", "IIBF CERTIFICATION COURSE", "BANK PROMOTION EXAMS"},
		Subjects: []string{
			"AFM", "RBWM", "IEIFS", "PPB", "ABM", "ABFM", "BFM", "BRBL",
			"CAIIB Elective Subjects", "CCP + AML", "Foreign Exchange",
			"Prevention of Cyber Crime", "KYC + IBC + MSME", "General Banking",
			"Computer Knowledge", "Banking Law", "Other",
		},
	},
	"SSC": {
		Exams: []string{"GD", "MTS", "CHSL", "CGL", "Delhi Police", "CPO", "Steno"},
		Subjects: []string{
			"Other", "Current Affairs", "English", "GK/GS", "Maths", "Reasoning",
			"Science", "Shorthand",
		},
	},
	"Railway": {
		Exams:    []string{"RRB NTPC", "ALP", "Group D", "RPF"},
		Subjects: []string{"Other", "Current Affairs", "GK/GS", "Maths", "Reasoning", "Science"},
	},
	"Police": {
		Exams: []string{"UP Police", "UP Homeguard", "UP SI"},
		Subjects: []string{
			"Other", "Current Affairs", "English", "GK/GS", "Maths", "Reasoning",
			"Science", "Hindi",
		},
	},
	"teaching": {
		Exams: []string{
			"CTET", "LT Grade", "Bihar STET", "EMRS", "UP GIC", "NVS", "KVS", "HTET",
			"BPSC TRE 4.0", "UP TET", "REET", "DSSSB", "TGT", "PGT", "PRT", "TET Exams",
			"AWES", "SET Exams", "Super TET", "RPSC Teaching Exam", "Sainik School Exams",
			"West Bengal SSC Teacher Recruitment",
		},
		Subjects: []string{
			"Other", "English", "Hindi", "Maths", "Sanskrit", "CDP", "EVS",
			"General Studies", "Commerce", "Urdu", "Social Studies", "Science",
			"Home Science", "Music", "Arts", "Social Science", "Physical Education",
			"Fine Arts", "Physics", "Chemistry", "Biology", "Zoology", "History",
			"Geography", "Political Science", "Sociology", "Economics", "Philosophy",
			"Psychology", "Botany", "Computer Science", "GA", "Teaching Aptitude",
			"Reasoning", "Polity", "Mathematics", "Current Affairs", "General Science",
		},
	},
	"ugc": {
		Exams: []string{"Paper 1", "Paper 2", "SET / SLET", "CSIR NET"},
		Subjects: []string{
			"Other", "General Paper", "Political Science", "Philosophy", "Psychology",
			"Sociology", "History", "Commerce", "Education", "Home Science",
			"Physical Education", "Law", "Music", "Sanskrit", "Geography", "Ayurveda",
			"Biology", "Hindi", "Environmental Sciences", "Computer Science and Applications",
			"Library and Information Science", "Urdu", "English", "Chemical Sciences",
			"Earth Sciences", "Life Sciences", "Mathematical Sciences", "Physical Sciences",
			"General Aptitude",
		},
	},
	"bihar": {
		Exams: []string{
			"BPSC AEDO", "BSSC CGL-4", "Bihar Jeevika", "Bihar SI Daroga", "BSSC STENO",
			"BSSC Inter level", "BSSC Karyalay parichari", "Bihar Police driver",
		},
		Subjects: []string{
			"Hindi", "Maths", "GK/GS", "Reasoning", "English", "Science",
			"Current Affairs", "Subject Knowledge", "Computer", "Static GK", "Other",
		},
	},
	"Punjab": {
		Exams: []string{
			"PSSSB", "Punjab police constable", "High court", "ETT/NTT", "PSTET",
			"Master Cadre", "Punjab PCS", "SSC", "Railways",
		},
		Subjects: []string{
			"Static & Current Affairs", "General Knowledge", "Basic Computer Knowledge",
			"Logical Reasoning", "Quantitative Aptitude", "Numerical Aptitude",
			"General English", "Punjabi Language", "Punjab GK", "General Awareness",
			"Arithmetic", "Teaching Aptitude", "Pedagogy",
			"Information & Communication Technology (ICT)", "Hindi Language",
			"English Language", "Mathematics", "General Science", "Social Science",
			"Environmental Studies", "Science", "General Studies",
			"Civil Services Aptitude Test (CSAT)", "Reasoning", "Other",
		},
	},
	"bengal": {
		Exams: []string{"WBSSC GROUP C & D", "SSC MTS", "RRB NTPC", "WBP", "Banking", "WBCS"},
		Subjects: []string{
			"Current Affairs", "History", "Polity", "Mathematics", "Gk", "Gs", "English",
			"General Studies", "Static Gk", "Reasoning", "Banking Awareness",
			"Geography", "Other",
		},
	},
	"Odia": {
		Exams: []string{
			"Bed Entrance Exam", "LTR MAINS ARTS OSSC CGL", "OSSC PEO", "SSD Sevak Sevika",
			"Police Constable", "RI AMIN MAINS", "RRB NTPC", "RRB Group D", "RRb PO",
			"IBPS Clerk", "OPSC",
		},
		Subjects: []string{
			"Current Affairs", "Reasoning", "English", "GK/GS", "Geography", "History",
			"Polity", "Pedagogy", "Computer", "Physics", "Chemistry", "Mathematics",
			"Economics", "Other",
		},
	},
	"Tamil": {
		Exams: []string{"TNPSC", "TET", "NTPC", "TNUSRB Si", "PC. IB", "RPF", "RRB JE", "RRB GR D"},
		Subjects: []string{
			"Current Affairs", "English", "Maths", "Geography", "Science", "Psychology",
			"GK", "Reasoning", "Biology", "Polity", "History", "GS", "Other",
		},
	},
	"Telugu": {
		Exams: []string{
			"NTPC", "Group-D", "RRB Junior Engineer(CBT-1 Only)", "MTS", "CHSL", "GD",
			"CGL", "Bank PO", "Bank Clerk", "APPSC & TGPSC",
		},
		Subjects: []string{
			"Mathematics", "Reasoning", "Polity", "Economy", "History", "Geography",
			"Current Affairs", "Computer", "Arithmetic", "English",
			"Banking/Financial Awareness", "Credit Co-Operative", "Science & Tech",
			"Telangana Movement (for Telangana Exams only)",
			"General Science (Physics + Chemistry + Biology)", "Teaching Aptitude",
			"Pedagogy", "ICT", "POCSO", "Administrative Aptitude", "Other",
		},
	},
	"Agriculture": {
		Exams: []string{
			"IBPS SO AFO", "NABARD GRADE A", "FCI AG III Technical", "Haryana ADO/HDO",
			"Punjab ADO/HDO", "APSC ADO", "FSSAI CFSO/TO", "MP FSO", "CUET PG Agriculture",
			"UPCATET PG", "NSC Trainee", "IFFCO AGT", "KRIBHCO FRT",
			"Bihar Agriculture Coordinator", "BPSC BAO/SDAO", "BHO/SHDO",
			"Bihar Jeevika Bharti", "UPSSSC AGTA", "Cane Supervisor", "MP ESB",
			"RPSC Agriculture Supervisor", "DDA SO Horticulture", "DSSSB SO Horticulture",
			"NHB SHO", "CCI JCE", "CWC JTA", "BSSC Field Assistant",
		},
		Subjects: []string{
			"Agronomy", "Genetics & Plant Breeding", "Entomology", "Soil Science",
			"Agri. Current Affairs", "Horticulture", "Allied Agriculture",
			"Animal Husbandry", "Plant Pathology", "Food Science & Technology", "Other",
		},
	},
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"categories": contentCategories,
	})
}

func (s *Server) handleExams(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"exams": examGroups,
	})
}
