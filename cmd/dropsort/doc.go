// Command dropsort watches a drop directory and organizes photos and videos
// into a date-based library. It also provides one-shot scanning, history
// inspection, and configuration utilities.
package main
