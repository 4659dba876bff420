package ir

// EngineVersion is the coedit release version, reported by "coedit --version".
const EngineVersion = "0.1.0"
