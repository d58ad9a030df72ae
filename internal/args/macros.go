package args

import (
	"os"
	"strconv"
	"strings"
)

// macroTable returns the placeholder substitutions for one launch.
func macroTable(c Context, assetIndex, versionType, classpath string) map[string]string {
	label := c.VersionLabel
	if label == "" {
		label = versionType
	}
	userType := c.UserType
	if userType == "" {
		userType = "msa"
	}
	return map[string]string{
		"${auth_player_name}":    c.PlayerName,
		"${version_name}":        c.VersionID,
		"${game_directory}":      c.GameDir(),
		"${assets_root}":         c.AssetsDir(),
		"${game_assets}":         c.AssetsDir(),
		"${assets_index_name}":   assetIndex,
		"${auth_uuid}":           c.PlayerUUID,
		"${auth_access_token}":   c.AccessToken,
		"${auth_session}":        c.AccessToken,
		"${auth_xuid}":           c.XUID,
		"${clientid}":            c.ClientID,
		"${user_type}":           userType,
		"${user_properties}":     "{}",
		"${version_type}":        label,
		"${resolution_width}":    strconv.Itoa(c.Width),
		"${resolution_height}":   strconv.Itoa(c.Height),
		"${natives_directory}":   c.NativesDir(),
		"${library_directory}":   c.LibrariesDir(),
		"${classpath_separator}": string(os.PathListSeparator),
		"${launcher_name}":       c.LauncherName,
		"${launcher_version}":    c.LauncherVersion,
		"${classpath}":           classpath,
	}
}

// Expander substitutes known placeholders by literal replacement. Unknown
// placeholders are left as they are.
type Expander struct{ r *strings.Replacer }

// NewExpander builds an Expander over table.
func NewExpander(table map[string]string) Expander {
	pairs := make([]string, 0, len(table)*2)
	for k, v := range table {
		pairs = append(pairs, k, v)
	}
	return Expander{r: strings.NewReplacer(pairs...)}
}

// Expand applies the table to s.
func (e Expander) Expand(s string) string { return e.r.Replace(s) }
