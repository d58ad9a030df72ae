package types

import "strings"

// CoordinatePath converts group:artifact:version[:classifier][@ext] into the
// repository layout group/as/dirs/artifact/version/artifact-version[-classifier].ext.
// It returns "" for coordinates with fewer than three parts.
func CoordinatePath(name string) string {
	ext := "jar"
	if at := strings.LastIndex(name, "@"); at >= 0 {
		ext = name[at+1:]
		name = name[:at]
	}
	parts := strings.Split(name, ":")
	if len(parts) < 3 {
		return ""
	}
	for _, p := range parts[:3] {
		if p == "" {
			return ""
		}
	}
	group, artifact, version := parts[0], parts[1], parts[2]
	file := artifact + "-" + version
	if len(parts) > 3 && parts[3] != "" {
		file += "-" + parts[3]
	}
	return strings.ReplaceAll(group, ".", "/") + "/" + artifact + "/" + version + "/" + file + "." + ext
}

// ArtifactPath returns the declared artifact path, else the path derived
// from the coordinate name. Empty when neither resolves.
func (l *Library) ArtifactPath() string {
	if a := l.Artifact(); a != nil && a.Path != "" {
		return a.Path
	}
	return CoordinatePath(l.Name)
}
