// Package logging builds the host's zap logger: JSON in production, colored
// console output in development.
//
// Subsystems get a named child logger, and the level is shared, so raising it
// through LevelHandler affects every component at once:
//
//	logger := logging.NewDefault()
//	coord.WithLogger(logger.Component("embed"))
//	router.PUT("/log/level", gin.WrapH(logger.LevelHandler()))
package logging
