package rules

// DefaultFile returns the built-in rule tables.
func DefaultFile() File {
	return File{
		DefaultCategory:  "development-tools",
		MaxTags:          DefaultMaxTags,
		PopularLanguages: []string{"python", "javascript", "typescript", "go", "rust", "java", "c#", "swift"},
		FeatureTags:      []string{"api", "web", "docker", "database"},
		Categories: []CategorySpec{
			{
				Key:         "mcp-servers",
				Name:        "MCP Servers",
				Description: "Model Context Protocol servers for AI integration",
				Priority:    "high",
				Difficulty:  "intermediate",
				Keywords:    []string{"mcp", "model context protocol"},
				Languages:   []string{"typescript", "python", "javascript"},
				Patterns:    []string{`^mcp-`, `-mcp$`, `.*mcp.*`},
			},
			{
				Key:         "ai-ml-tools",
				Name:        "AI & Machine Learning Tools",
				Description: "Artificial intelligence and machine learning frameworks",
				Priority:    "high",
				Difficulty:  "advanced",
				Keywords:    []string{"ai", "ml", "machine learning", "llm", "neural", "model", "training", "inference"},
				Languages:   []string{"python", "jupyter", "javascript", "typescript"},
				Patterns:    []string{`.*ai.*`, `.*ml.*`, `.*neural.*`},
			},
			{
				Key:         "web-scraping",
				Name:        "Web Scraping & Automation",
				Description: "Tools for web data extraction and automation",
				Priority:    "medium",
				Difficulty:  "intermediate",
				Keywords:    []string{"scraping", "crawler", "scraper", "parse", "extract", "spider"},
				Languages:   []string{"python", "javascript", "go", "rust"},
				Patterns:    []string{`.*scrap.*`, `.*crawl.*`, `.*scraper.*`},
			},
			{
				Key:         "development-tools",
				Name:        "Development Tools & Utilities",
				Description: "Programming tools, frameworks, and development utilities",
				Priority:    "medium",
				Difficulty:  "beginner",
				Keywords:    []string{"framework", "library", "tool", "utility", "build", "test", "lint"},
				Languages:   []string{"python", "javascript", "typescript", "rust", "go"},
				Patterns:    []string{`.*framework.*`, `.*lib.*`, `.*tool.*`},
			},
			{
				Key:         "security-tools",
				Name:        "Security & Reverse Engineering",
				Description: "Security analysis, penetration testing, and reverse engineering tools",
				Priority:    "medium",
				Difficulty:  "advanced",
				Keywords:    []string{"security", "scan", "vulnerability", "penetration", "reverse engineer", "hack"},
				Languages:   []string{"python", "c", "c++", "java", "assembly"},
				Patterns:    []string{`.*security.*`, `.*scan.*`, `.*audit.*`},
			},
			{
				Key:         "mobile-development",
				Name:        "Mobile Development & iOS",
				Description: "iOS development, apps, and mobile utilities",
				Priority:    "low",
				Difficulty:  "intermediate",
				Keywords:    []string{"ios", "android", "mobile", "app", "swift", "kotlin"},
				Languages:   []string{"swift", "kotlin", "java", "dart"},
				Patterns:    []string{`.*ios.*`, `.*android.*`, `.*mobile.*`},
			},
		},
		Bundles: []BundleSpec{
			{Language: "python", Tags: []string{"python", "machine learning", "data science"}},
			{Language: "javascript", Tags: []string{"javascript", "nodejs", "web", "frontend"}},
			{Language: "typescript", Tags: []string{"typescript", "nodejs", "web", "typed"}},
			{Language: "c#", Tags: []string{"csharp", ".net", "unity", "windows"}},
			{Language: "go", Tags: []string{"golang", "performance", "concurrent"}},
			{Language: "rust", Tags: []string{"rust", "systems", "performance", "memory-safe"}},
			{Language: "java", Tags: []string{"java", "enterprise", "android", "jvm"}},
		},
		Difficulty: []LevelSpec{
			{Level: "beginner", Keywords: []string{"simple", "basic", "starter", "learn", "tutorial", "example"}},
			{Level: "advanced", Keywords: []string{"advanced", "enterprise", "professional", "production", "system"}},
		},
	}
}
