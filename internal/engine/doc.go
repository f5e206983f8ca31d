/*
Engine implements the backtest simulation loop.

# Module
  - event queue: single chronological timeline shared by every producer
  - execution simulator: prices orders against the latest tick per symbol
  - loop: pops events in timestamp order and dispatches them by kind

# Source
 1. ticks and signals pushed by feeds and strategies
 2. WAL replay from the replay feed
 3. orders and fills synthesized by the loop itself

# Produce
  - fills, handed to fill handlers (portfolio, journal) and observers (WAL)

# Modes
  - drain: exits as soon as the queue is observed empty (batch backtest)
  - service: blocks on the queue until Stop or CloseInput
*/
package engine
