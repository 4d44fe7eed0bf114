// Command hashpw produces and checks bcrypt hashes for the optional basic-auth
// gate in front of the video listing.
//
// Usage:
//
//	hashpw <command>
//
// Commands:
//
//	hash    Prompt for a password twice and print its bcrypt hash.
//	        Put the output in BROWSE_PASSWORD_HASH.
//
//	verify  Prompt for a password and check it against the hash in
//	        BROWSE_PASSWORD_HASH.
//
// When stdin is not a terminal the password is read from the first line of
// stdin instead, so the tool can be scripted:
//
//	echo 's3cret' | hashpw hash
package main
