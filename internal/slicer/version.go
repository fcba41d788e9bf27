package slicer

// Version is the session boundary API version.
const Version = "1.0.0"

// EngineVersion reports the version of the engine a session delegates to.
func (s *Session) EngineVersion() string {
	return s.engine.Version()
}
