// Package args turns a resolved descriptor and a launch context into the
// ordered command line: JVM tokens, the main class, then game tokens.
package args

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"gamelaunch/internal/common/fsutil"
	"gamelaunch/internal/rules"
	"gamelaunch/pkg/types"
)

const defaultMaxHeapMB = 2048

// Grammar identifies which argument grammar produced a Command.
type Grammar string

const (
	GrammarModern Grammar = "modern"
	GrammarLegacy Grammar = "legacy"
)

// Command is the built argument list.
type Command struct {
	JVM       []string
	MainClass string
	Game      []string
	Classpath string
	Grammar   Grammar
}

// Argv returns JVM tokens, the main class and game tokens in launch order.
func (c Command) Argv() []string {
	out := make([]string, 0, len(c.JVM)+1+len(c.Game))
	out = append(out, c.JVM...)
	out = append(out, c.MainClass)
	return append(out, c.Game...)
}

// Builder builds Commands. The zero value logs nowhere.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder returns a Builder logging to l (nil for none).
func NewBuilder(l *zerolog.Logger) *Builder {
	b := &Builder{log: zerolog.Nop()}
	if l != nil {
		b.log = *l
	}
	return b
}

// Build produces the command for d. mainJar is the resolved main artifact.
func (b *Builder) Build(d *types.VersionDescriptor, mainJar string, c Context) (Command, error) {
	useModern := d.HasStructuredArguments()
	if !useModern && strings.TrimSpace(d.MinecraftArguments) == "" {
		return Command{}, fmt.Errorf("version %s: %w", d.ID, ErrMissingArguments)
	}
	cp, err := b.Classpath(d.Libraries, c.LibrariesDir(), mainJar, c.Platform)
	if err != nil {
		return Command{}, err
	}
	exp := NewExpander(macroTable(c, d.AssetIndexID(), d.Type, cp))
	cmd := Command{MainClass: d.MainClass, Classpath: cp}
	if useModern {
		cmd.Grammar = GrammarModern
		cmd.JVM = expandEntries(d.Arguments.JVM, exp, c)
		cmd.Game = expandEntries(d.Arguments.Game, exp, c)
		return cmd, nil
	}
	cmd.Grammar = GrammarLegacy
	heap := c.MaxHeapMB
	if heap <= 0 {
		heap = defaultMaxHeapMB
	}
	cmd.JVM = []string{
		"-Djava.library.path=" + c.NativesDir(),
		"-cp",
		cp,
		"-Xmx" + strconv.Itoa(heap) + "M",
	}
	for _, tok := range strings.Fields(d.MinecraftArguments) {
		cmd.Game = append(cmd.Game, exp.Expand(tok))
	}
	return cmd, nil
}

func expandEntries(entries []types.Argument, exp Expander, c Context) []string {
	var out []string
	for _, e := range entries {
		if !e.IsLiteral() && !rules.AllowedWithFeatures(e.Rules, c.Platform, c.Features) {
			continue
		}
		for _, tok := range e.Tokens() {
			out = append(out, exp.Expand(tok))
		}
	}
	return out
}

// Classpath joins the absolute paths of platform-allowed libraries, in
// order, followed by the main jar. Missing library files only warn; a
// missing main jar fails.
func (b *Builder) Classpath(libs []types.Library, librariesDir, mainJar string, p rules.Platform) (string, error) {
	var parts []string
	for _, lib := range libs {
		if lib.IsNativeOnly() || !rules.Allowed(lib.Rules, p) {
			continue
		}
		rel := lib.ArtifactPath()
		if rel == "" {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(librariesDir, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		if !fsutil.PathExists(abs) {
			b.log.Warn().Str("library", lib.Name).Str("path", abs).Msg("library file missing")
		}
		parts = append(parts, abs)
	}
	mainAbs, err := filepath.Abs(mainJar)
	if err != nil || !fsutil.PathExists(mainAbs) {
		return "", fmt.Errorf("%w: %s", ErrMissingMainArtifact, mainJar)
	}
	parts = append(parts, mainAbs)
	return strings.Join(parts, string(os.PathListSeparator)), nil
}
