package generator

var (
	firstNames = []string{
		"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda",
		"David", "Elizabeth", "William", "Barbara", "Richard", "Susan", "Joseph", "Jessica",
		"Thomas", "Sarah", "Charles", "Karen", "Daniel", "Nancy", "Matthew", "Betty",
		"Anthony", "Margaret", "Mark", "Sandra", "Steven", "Ashley", "Paul", "Kimberly",
		"Andrew", "Emily", "Joshua", "Donna", "Kevin", "Michelle", "Brian", "Amanda",
		"Alex", "Jordan", "Taylor", "Morgan", "Jamie", "Avery", "Casey", "Riley",
		"Priya", "Arjun", "Ananya", "Rohan", "Mei", "Hiro", "Yuna", "Minjun",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson",
		"Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson",
		"White", "Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson", "Walker",
		"Kim", "Park", "Choi", "Chen", "Nguyen", "Patel", "Sharma", "Iyer", "Tanaka",
	}
	emailDomains = []string{
		"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "protonmail.com",
		"icloud.com", "example.com", "mail.com", "fastmail.com", "shoptest.co",
	}
	countries = []string{
		"United States", "Canada", "United Kingdom", "Germany", "France", "Japan",
		"Australia", "Brazil", "India", "Mexico", "Italy", "Spain", "Netherlands",
		"Sweden", "Norway", "Poland", "Ireland", "New Zealand", "Singapore",
		"South Korea", "South Africa", "Chile", "Kenya", "Portugal",
	}
	productWords = []string{
		"solar", "trail", "classic", "smart", "urban", "vintage", "compact", "deluxe",
		"wireless", "organic", "premium", "modern", "portable", "studio", "ultra", "eco",
		"lamp", "shoe", "kettle", "jacket", "speaker", "blender", "novel", "serum",
		"backpack", "watch", "mat", "bottle", "headset", "chair", "scarf", "racket",
	}
	streetNames = []string{
		"Maple", "Oak", "Pine", "Cedar", "Elm", "Lake", "Hill", "Park", "River",
		"Sunset", "Highland", "Church", "Mill", "Spring", "Market", "Station",
	}
	streetSuffixes = []string{"St", "Ave", "Rd", "Blvd", "Ln", "Way", "Dr", "Ct"}
	cities         = []string{
		"Springfield", "Riverside", "Fairview", "Franklin", "Greenville", "Bristol",
		"Clinton", "Madison", "Georgetown", "Salem", "Arlington", "Ashland",
	}
	states = []string{"CA", "NY", "TX", "WA", "IL", "FL", "OR", "MA", "CO", "GA"}
)
