package config

import "time"

// Default returns a complete, valid configuration tuned for English-language
// music news feeds.
func Default() *Config {
	return &Config{
		Normalizer: NormalizerConfig{
			BoilerplateWords:   []string{"exclusive", "breaking", "watch", "live", "update", "updated", "video", "listen", "photos"},
			AllowedPunctuation: "&'-",
			URLQueryAllowList:  []string{"id", "p", "article", "articleid", "story", "storyid", "post", "postid"},
		},
		Extraction: ExtractionConfig{
			HighProfileEntities: []string{
				"taylor swift", "beyonce", "beyoncé", "drake", "bts", "blackpink", "kendrick lamar",
				"billie eilish", "ariana grande", "ed sheeran", "rihanna", "the weeknd", "bad bunny",
				"adele", "harry styles", "olivia rodrigo", "travis scott", "lady gaga", "bruno mars",
				"dua lipa", "sza", "coldplay", "eminem", "post malone", "justin bieber", "sabrina carpenter",
			},
			HeadlineStopwords: []string{
				"the", "a", "an", "of", "and", "or", "in", "on", "at", "to", "for", "with", "from", "by",
				"is", "are", "new", "live", "watch", "breaking", "exclusive", "official", "video", "first",
				"latest", "review", "listen", "hear", "see", "how", "why", "what", "who", "this", "that",
				"his", "her", "their", "after", "before", "our", "my", "your", "its", "music",
			},
			GenericPhrases: []string{
				"new album", "live from", "new single", "music video", "official video", "breaking news",
				"first look", "world tour", "record label", "north america",
			},
			ActionVerbs: []string{
				"announces", "announced", "releases", "released", "debuts", "drops", "unveils", "reveals",
				"confirms", "launches", "premieres", "shares", "teases", "signs", "joins", "leaves",
				"cancels", "postpones", "reschedules", "wins", "tops", "breaks", "dies", "returns",
				"reunites", "collaborates",
			},
			DomainNouns: []string{
				"album", "tour", "single", "ep", "song", "track", "mixtape", "concert", "festival",
				"setlist", "chart", "grammy", "award", "label", "deal", "lawsuit", "documentary",
				"vinyl", "residency", "remix",
			},
		},
		Similarity: SimilarityConfig{
			TitleWeight:   0.7,
			KeywordWeight: 0.3,
			Stopwords: []string{
				"a", "an", "the", "of", "and", "or", "in", "on", "at", "to", "for", "with", "from",
				"by", "is", "are", "as", "it", "its", "this", "that",
			},
			FingerprintMaxTokens: 24,
		},
		Dedup: DedupConfig{
			HighProfileTitleThreshold: 0.6,
			TitleThreshold:            0.8,
			BlendTitleThreshold:       0.65,
			BlendTitleWeight:          0.6,
			BlendEntityWeight:         0.4,
			BlendThreshold:            0.75,
			SameSourceTitleThreshold:  0.5,
			SameSourceWindow:          2 * time.Hour,

			TierGap:                   2,
			DescriptionRatio:          0.2,
			RecencyGap:                time.Hour,
			FallbackTierWeight:        3,
			FallbackTitleWeight:       0.1,
			FallbackDescriptionWeight: 0.01,

			ParallelThreshold: 64,
		},
		Sources: SourcesConfig{
			Tiers: map[string]int{
				"billboard.com":              5,
				"rollingstone.com":           5,
				"pitchfork.com":              4,
				"variety.com":                4,
				"musicbusinessworldwide.com": 4,
				"nme.com":                    3,
				"stereogum.com":              3,
				"consequence.net":            3,
				"consequenceofsound.net":     3,
				"hotnewhiphop.com":           2,
				"allkpop.com":                2,
				"soompi.com":                 2,
			},
			Credibility: map[string]float64{
				"billboard.com":              0.9,
				"rollingstone.com":           0.9,
				"pitchfork.com":              0.85,
				"variety.com":                0.85,
				"musicbusinessworldwide.com": 0.8,
				"nme.com":                    0.75,
				"stereogum.com":              0.75,
				"consequence.net":            0.7,
				"consequenceofsound.net":     0.7,
			},
			DefaultCredibility: 0.3,
		},
		Classifier: ClassifierConfig{
			Categories: []CategoryRule{
				{Name: "NEWS", Keywords: []string{
					"breaking", "announces", "releases", "debuts", "launches", "drops", "premieres",
					"reveals", "confirms", "signs", "joins", "leaves", "cancels", "postpones",
					"reschedules", "dies", "passes away",
				}},
				{Name: "REPORT", Keywords: []string{
					"report", "analysis", "study", "research", "data", "statistics", "numbers", "sales",
					"charts", "streaming", "revenue", "market", "industry", "trends", "growth", "decline",
				}},
				{Name: "INSIGHT", Keywords: []string{
					"opinion", "perspective", "commentary", "think piece", "deep dive", "exploration",
					"examination", "investigation", "behind the", "why", "how", "what makes",
					"understanding", "meaning",
				}},
				{Name: "INTERVIEW", Keywords: []string{
					"interview", "talks", "speaks", "discusses", "conversation", "q&a", "asks", "tells",
					"explains", "opens up", "sits down",
				}},
				{Name: "COLUMN", Keywords: []string{
					"column", "editorial", "opinion piece", "blog", "thoughts", "reflections", "musings",
					"take on", "view on",
				}},
			},
		},
		Tags: TagsConfig{
			Genre: []TagRule{
				{"k-pop", "K-POP"}, {"kpop", "K-POP"}, {"j-pop", "J-POP"}, {"pop", "POP"},
				{"rock", "ROCK"}, {"hip hop", "HIP-HOP"}, {"hip-hop", "HIP-HOP"}, {"rap", "HIP-HOP"},
				{"drill", "HIP-HOP"}, {"jazz", "JAZZ"}, {"classical", "CLASSICAL"},
				{"electronic", "ELECTRONIC"}, {"edm", "ELECTRONIC"}, {"techno", "ELECTRONIC"},
				{"house music", "ELECTRONIC"}, {"country", "COUNTRY"}, {"folk", "FOLK"},
				{"blues", "BLUES"}, {"metal", "METAL"}, {"punk", "PUNK"}, {"r&b", "R&B"},
				{"soul music", "SOUL"}, {"funk", "FUNK"}, {"reggaeton", "LATIN"}, {"reggae", "REGGAE"},
				{"latin", "LATIN"}, {"afrobeats", "AFROBEATS"}, {"afrobeat", "AFROBEATS"},
				{"ambient", "AMBIENT"},
			},
			Industry: []TagRule{
				{"tour", "TOUR"}, {"concert", "LIVE"}, {"residency", "LIVE"}, {"festival", "FESTIVAL"},
				{"streaming", "STREAMING"}, {"spotify", "STREAMING"}, {"playlist", "STREAMING"},
				{"record label", "LABEL"}, {"signs with", "LABEL"}, {"vinyl", "PHYSICAL"},
				{"royalties", "ROYALTIES"}, {"publishing", "PUBLISHING"}, {"licensing", "LICENSING"},
				{"hot 100", "CHARTS"}, {"billboard 200", "CHARTS"}, {"charts", "CHARTS"},
				{"grammy", "AWARDS"}, {"award", "AWARDS"}, {"acquisition", "BUSINESS"},
				{"merger", "BUSINESS"}, {"investment", "BUSINESS"}, {"ipo", "BUSINESS"},
				{"lawsuit", "LEGAL"}, {"copyright", "LEGAL"}, {"ai music", "TECH"},
				{"artificial intelligence", "TECH"}, {"radio", "RADIO"}, {"ticketmaster", "TICKETING"},
				{"tickets", "TICKETING"},
			},
			Region: []TagRule{
				{"u.s.", "US"}, {"usa", "US"}, {"american", "US"}, {"uk", "UK"}, {"britain", "UK"},
				{"british", "UK"}, {"london", "UK"}, {"korea", "KOREA"}, {"korean", "KOREA"},
				{"seoul", "KOREA"}, {"japan", "JAPAN"}, {"tokyo", "JAPAN"}, {"china", "CHINA"},
				{"chinese", "CHINA"}, {"india", "INDIA"}, {"africa", "AFRICA"}, {"nigeria", "AFRICA"},
				{"latin america", "LATAM"}, {"mexico", "LATAM"}, {"brazil", "LATAM"},
				{"europe", "EUROPE"}, {"european", "EUROPE"}, {"germany", "EUROPE"}, {"france", "EUROPE"},
				{"nordic", "EUROPE"}, {"australia", "AUSTRALIA"}, {"canada", "CANADA"},
				{"canadian", "CANADA"}, {"global", "GLOBAL"}, {"worldwide", "GLOBAL"},
			},
			MaxTagsPerDimension: 3,
		},
		Scoring: ScoringConfig{
			Weights: ImportanceWeights{
				Credibility: 0.25,
				Keywords:    0.20,
				Subject:     0.25,
				Activity:    0.15,
				Recency:     0.10,
				Social:      0.05,
			},
			TrendingWeights: TrendingWeights{
				Importance: 0.70,
				Recency:    0.15,
				Buzz:       0.10,
				Subject:    0.05,
			},
			ComputeTrending: true,

			HighImpactKeywords: []string{
				"record-breaking", "record breaking", "number one", "no. 1", "billion", "million",
				"historic", "first-ever", "sold out", "sold-out", "lawsuit", "arrested", "dies",
				"death", "retire", "breakup", "reunion", "grammy", "surprise",
			},
			KeywordStep: 0.1,
			KeywordCap:  0.8,

			TopSubjects: []string{
				"taylor swift", "beyonce", "beyoncé", "drake", "bts", "blackpink", "kendrick lamar",
				"billie eilish", "ariana grande", "ed sheeran", "rihanna", "the weeknd", "bad bunny",
				"adele", "harry styles", "lady gaga",
			},
			MidSubjects: []string{
				"olivia rodrigo", "travis scott", "bruno mars", "dua lipa", "sza", "coldplay", "eminem",
				"post malone", "justin bieber", "sabrina carpenter", "chappell roan", "doja cat",
				"newjeans", "stray kids", "twice", "seventeen", "metallica", "foo fighters",
				"arctic monkeys", "charli xcx", "tame impala", "lizzo",
			},
			SubjectTop:     1.0,
			SubjectMid:     0.7,
			SubjectUnknown: 0.45,

			ActivityKeywords: []WeightedKeyword{
				{"grammy", 1.0}, {"world tour", 1.0}, {"album", 0.9}, {"billboard 200", 0.9},
				{"hot 100", 0.9}, {"award", 0.85}, {"tour", 0.8}, {"chart", 0.8},
				{"collaboration", 0.7}, {"festival", 0.7}, {"headline", 0.7}, {"lawsuit", 0.7},
				{"single", 0.6}, {"music video", 0.6}, {"concert", 0.6}, {"documentary", 0.5},
			},

			RecencySteps: []RecencyStep{
				{MaxAge: 6 * time.Hour, Score: 1.0},
				{MaxAge: 24 * time.Hour, Score: 0.8},
				{MaxAge: 72 * time.Hour, Score: 0.6},
			},
			RecencyStale:   0.3,
			RecencyUnknown: 0.5,

			BuzzKeywords: []string{
				"viral", "trending", "fans", "surprise", "leaked", "reacts", "backlash", "controversy",
				"tiktok", "record-breaking", "sold out", "meme", "social media", "slams",
			},
			BuzzBase: 0.3,
			BuzzStep: 0.1,

			FallbackImportance: 0.5,
		},
		Selection: SelectionConfig{
			Mode:        ModePerCategory,
			PerCategory: 4,
			Limit:       20,
			RankBy:      RankByImportance,
		},
		DateLayouts: []string{
			time.RFC1123Z,
			time.RFC1123,
			time.RFC3339,
			"Mon, 2 Jan 2006 15:04:05 -0700",
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
		},
		Workers: 4,

		Feeds: FeedsConfig{
			Path:           "configs/feeds.yaml",
			MaxPerFeed:     20,
			RequestTimeout: 30 * time.Second,
			MaxAge:         7 * 24 * time.Hour,
			MinRelevance:   0.4,
			DomainScore:    0.8,
			MusicKeywords: []string{
				"artist", "band", "singer", "musician", "album", "song", "track", "music",
				"concert", "tour", "festival", "record", "label", "streaming", "spotify",
				"apple music", "youtube music", "billboard", "chart", "grammy", "award",
				"producer", "songwriter", "collaboration", "release", "debut", "single",
				"ep", "lp", "vinyl", "radio", "playlist", "genre", "rock",
				"pop", "hip hop", "rap", "jazz", "classical", "electronic", "country",
				"folk", "blues", "metal", "punk", "indie", "alternative", "r&b", "soul",
			},
		},
		Output: OutputConfig{
			Path:       "music_news.json",
			ArchiveDir: "archive",
		},
		Summary: SummaryConfig{
			Model:             "gemini-1.5-flash",
			MaxRequests:       10,
			RequestsPerMinute: 50,
			MaxItems:          10,
			CacheTTL:          24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Topic: "music-news.ranked",
		},
		S3: S3Config{
			Prefix: "music-news/",
		},
		Monitoring: MonitoringConfig{
			Port: "8080",
		},
		Retry: RetryConfig{
			Attempts: 3,
			Delay:    2 * time.Second,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}
