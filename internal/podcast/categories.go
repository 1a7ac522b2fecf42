package podcast

import "strings"

// Apple Podcasts categories. Both lists are index aligned.
var (
	categoriesEN = []string{
		"Arts", "Books", "Design", "Fashion & Beauty", "Food", "Performing Arts", "Visual Arts",
		"Business", "Careers", "Entrepreneurship", "Investing", "Management", "Marketing", "Non-Profit",
		"Comedy", "Comedy Interviews", "Improv", "Stand-Up",
		"Education", "Courses", "How To", "Language Learning", "Self-Improvement",
		"Fiction", "Comedy Fiction", "Drama", "Science Fiction",
		"Government",
		"Health & Fitness", "Alternative Health", "Fitness", "Medicine", "Mental Health", "Nutrition", "Sexuality",
		"History",
		"Kids & Family", "Education for Kids", "Parenting", "Pets & Animals", "Stories for Kids",
		"Leisure", "Animation & Manga", "Automotive", "Aviation", "Crafts", "Games", "Hobbies", "Home & Garden", "Video Games",
		"Music", "Music Commentary", "Music History", "Music Interviews",
		"News", "Business News", "Daily News", "Entertainment News", "News Commentary", "Politics", "Sports News", "Tech News",
		"Religion & Spirituality", "Buddhism", "Christianity", "Hinduism", "Islam", "Judaism", "Religion", "Spirituality",
		"Science", "Astronomy", "Chemistry", "Earth Sciences", "Life Sciences", "Mathematics", "Natural Sciences", "Nature", "Physics", "Social Sciences",
		"Society & Culture", "Documentary", "Personal Journals", "Philosophy", "Places & Travel", "Relationships",
		"Sports", "Baseball", "Basketball", "Cricket", "Fantasy Sports", "Football", "Golf", "Hockey", "Rugby", "Running", "Soccer", "Swimming", "Tennis", "Volleyball", "Wilderness", "Wrestling",
		"TV & Film", "After Shows", "Film History", "Film Interviews", "Film Reviews", "TV Reviews",
		"Technology",
		"True Crime",
	}

	categoriesDE = []string{
		"Kunst", "Bücher", "Design", "Mode und Schönheit", "Essen", "Darstellende Kunst", "Bildende Kunst",
		"Wirtschaft", "Karriere", "Firmengründung", "Geldanlage", "Management", "Marketing", "Gemeinnützig",
		"Comedy", "Comedy-Interviews", "Impro-Comedy", "Stand-Up-Comedy",
		"Bildung", "Kurse", "So geht’s", "Sprachen lernen", "Selbstverwirklichung",
		"Fiktion", "Comedy-Fiction", "Drama", "Science-Fiction",
		"Regierung",
		"Gesundheit und Fitness", "Alternative Therapien", "Fitness", "Medizin", "Mentale Gesundheit", "Ernährung", "Sexualität",
		"Geschichte",
		"Kinder und Familie", "Bildung für Kinder", "Kindererziehung", "Haus- und Wildtiere", "Geschichten für Kinder",
		"Freizeit", "Animation und Manga", "Rund ums Auto", "Luftfahrt", "Basteln", "Spiele", "Hobbys", "Heim und Garten", "Videospiele",
		"Musik", "Musikrezensionen", "Musikgeschichte", "Musikinterviews",
		"Nachrichten", "Wirtschaftsnachrichten", "Nachrichten des Tages", "Neues aus der Unterhaltung", "Kommentare", "Politik", "Sportnews", "Neues aus der Technik",
		"Religion und Spiritualität", "Buddhismus", "Christentum", "Hinduismus", "Islam", "Judentum", "Religion", "Spiritualität",
		"Wissenschaft", "Astronomie", "Chemie", "Geowissenschaften", "Biowissenschaften", "Mathematik", "Naturwissenschaften", "Natur", "Physik", "Sozialwissenschaften",
		"Gesellschaft und Kultur", "Dokumentation", "Tagebücher", "Philosophie", "Reisen und Orte", "Beziehungen",
		"Sport", "Baseball", "Basketball", "Cricket", "Fantasy Sport", "Football", "Golf", "Eishockey", "Rugby", "Laufen", "Fußball", "Schwimmen", "Tennis", "Volleyball", "Abenteuer Natur", "Wrestling",
		"TV und Film", "Backstage", "Filmgeschichte", "Filminterviews", "Filmrezensionen", "TV-Rezensionen",
		"Technologie",
		"Wahre Kriminalfälle",
	}
)

// PossibleCategoryNames lists the category names for "en" or "de". Other
// languages yield nil.
func PossibleCategoryNames(lang string) []string {
	switch strings.ToLower(lang) {
	case "en":
		return append([]string(nil), categoriesEN...)
	case "de":
		return append([]string(nil), categoriesDE...)
	}

	return nil
}

// TranslateCategory maps a category name between English and German.
// Names that are not known are returned unchanged.
func TranslateCategory(name string, toGerman bool) string {
	from, to := categoriesDE, categoriesEN
	if toGerman {
		from, to = categoriesEN, categoriesDE
	}

	needle := strings.TrimSpace(name)
	for i, c := range from {
		if strings.EqualFold(c, needle) {
			return to[i]
		}
	}

	return name
}
