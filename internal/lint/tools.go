package lint

// Tool identifiers, also used as output name prefixes.
const (
	Busted   = "busted"
	LDoc     = "ldoc"
	Luacheck = "luacheck"
	Prettier = "prettier"
	StyLua   = "stylua"
)

// Tools lists every tool in display order: tests, docs, static analysis,
// then the two formatters.
var Tools = []string{Busted, LDoc, Luacheck, Prettier, StyLua}

var titles = map[string]string{
	Busted:   "Busted",
	LDoc:     "LDoc",
	Luacheck: "Luacheck",
	Prettier: "Prettier",
	StyLua:   "StyLua",
}

// Title returns the display name of tool.
func Title(tool string) string {
	if t, ok := titles[tool]; ok {
		return t
	}
	return tool
}
