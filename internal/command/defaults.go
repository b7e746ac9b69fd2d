package command

// Subcommands of the Eask CLI that list further subcommands of their own.
var defaultGroups = []string{
	"clean",
	"create",
	"format",
	"generate",
	"generate test",
	"generate workflow",
	"link",
	"lint",
	"run",
	"source",
	"test",
}

// Leaf subcommands and the hint shown when asking for their arguments.
// An empty hint means the command takes no positional arguments.
var defaultLeaves = map[string]string{
	"analyze":                     "files (optional)",
	"archives":                    "",
	"bump":                        "levels: major minor patch",
	"cat":                         "file patterns",
	"compile":                     "files (optional)",
	"concat":                      "files (optional)",
	"docs":                        "files (optional)",
	"emacs":                       "arguments",
	"eval":                        "elisp form",
	"exec":                        "program and arguments",
	"exec-path":                   "",
	"files":                       "file patterns (optional)",
	"info":                        "",
	"install":                     "package names (optional)",
	"install-deps":                "",
	"install-file":                "files",
	"install-vc":                  "package url",
	"keywords":                    "",
	"load":                        "files",
	"load-path":                   "",
	"locate":                      "",
	"outdated":                    "",
	"package":                     "destination (optional)",
	"recipe":                      "",
	"refresh":                     "",
	"reinstall":                   "package names (optional)",
	"search":                      "queries",
	"status":                      "",
	"uninstall":                   "package names (optional)",
	"upgrade":                     "package names (optional)",
	"upgrade-eask":                "",
	"clean all":                   "",
	"clean autoloads":             "",
	"clean dist":                  "",
	"clean elc":                   "",
	"clean log-file":              "",
	"clean pkg-file":              "",
	"clean workspace":             "",
	"create elpa":                 "name",
	"create package":              "name",
	"format elfmt":                "files (optional)",
	"format elisp-autofmt":        "files (optional)",
	"generate autoloads":          "",
	"generate ignore":             "name (optional)",
	"generate license":            "name",
	"generate pkg-file":           "",
	"generate recipe":             "destination (optional)",
	"generate test ert":           "names (optional)",
	"generate test ert-runner":    "names (optional)",
	"generate test buttercup":     "",
	"generate test ecukes":        "",
	"generate workflow circle-ci": "file (optional)",
	"generate workflow github":    "file (optional)",
	"generate workflow gitlab":    "file (optional)",
	"generate workflow travis-ci": "file (optional)",
	"link add":                    "name path",
	"link delete":                 "names",
	"link list":                   "",
	"lint checkdoc":               "files (optional)",
	"lint declare":                "files (optional)",
	"lint elint":                  "files (optional)",
	"lint elisp-lint":             "files (optional)",
	"lint elsa":                   "files (optional)",
	"lint indent":                 "files (optional)",
	"lint keywords":               "",
	"lint license":                "",
	"lint org":                    "files",
	"lint package":                "files (optional)",
	"lint regexps":                "files (optional)",
	"run command":                 "names (optional)",
	"run script":                  "names (optional)",
	"source add":                  "name url (optional)",
	"source delete":               "name",
	"source list":                 "",
	"test activate":               "files (optional)",
	"test buttercup":              "",
	"test ecukes":                 "files (optional)",
	"test ert":                    "files",
	"test ert-runner":             "",
	"test melpazoid":              "directory (optional)",
}

// DefaultRegistry returns a registry populated with the Eask subcommands.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, id := range defaultGroups {
		mustRegister(r.RegisterGroup(id))
	}
	for id, prompt := range defaultLeaves {
		mustRegister(r.RegisterLeaf(id, prompt))
	}
	return r
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}
