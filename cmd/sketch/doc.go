// Command sketch is the command-line front end: it runs programs
// headlessly, generates and fixes new ones, talks to the animation service
// and browses local run history.
//
//	sketch run bouncing.js
//	sketch generate "a spiral of glowing dots" -o spiral.js --share
//	sketch open 6650e1f2 -o copy.js
//	sketch history list --outcome error
package main
