// Command server runs the companion backend.
package main
