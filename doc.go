// github.com/tve/fs20devices contains a collection of drivers for hardware attached to gpio pins,
// centered on a transmitter for the FS20 home automation protocol. It uses periph for the low
// level access to the pins (or embd when built with the embd tag). Each device driver is in its
// own directory and is stand-alone. Simple commands to use the devices can be found in the cmd
// directory tree.
package devices
