/*
Recorder keeps the backtest timeline in a segmented write ahead log.

# Module
  - writer: appends encoded events in call order, rotates segments by size or age
  - reader: validates magic, version and checksum of each record
  - playback: walks segments in name order, optional speed pacing

# Source
  - every event dispatched by the engine loop
  - generated timelines from mdg

# Produce
  - wal segment files, read back by feed and state recovery
*/
package recorder
